package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/wimpack/wim/chunkio"
	"github.com/wimpack/wim/codec"
	"github.com/wimpack/wim/dedup"
	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/manifest"
)

// Reader is a memory-mapped, read-only view of one archive file,
// opened for test/apply/export/info/dir — the operations spec.md
// §4.8/§5 describe as readers that "may operate concurrently on an
// immutable-at-this-moment file," matching how saferwall-pe maps a
// whole PE file instead of streaming reads.
type Reader struct {
	path   string
	file   *os.File
	region mmap.MMap

	Header    *layout.Header
	Store     *dedup.Store
	Manifest  *manifest.Manifest
	Integrity *layout.IntegrityTable

	// OffsetRows preserves on-disk row order, needed to rebuild the
	// dedup.Store and to choose a stable emission order on rewrite.
	// Image-to-metadata-resource association is carried in the XML
	// manifest (manifest.Image.MetadataHash), not row position — see
	// DESIGN.md.
	OffsetRows []layout.OffsetTableEntry

	data []byte // the logical, possibly write-in-progress-truncated view
}

// Open maps path read-only and parses its header, offset table, XML
// manifest, and (if present) integrity table.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}

	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("archive: mmap %s: %w", path, err)
	}

	r := &Reader{path: path, file: f, region: region}
	if err := r.parse(); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// Close unmaps and closes the underlying file.
func (r *Reader) Close() error {
	var err error
	if r.region != nil {
		err = r.region.Unmap()
	}
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// readerAt adapts the mmap'd region to io.ReaderAt, bounded to the
// logical (possibly write-in-progress-truncated) view parse computes.
type readerAt struct {
	data []byte
}

func (m readerAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (r *Reader) parse() error {
	if len(r.region) < layout.HeaderSize {
		return fmt.Errorf("archive: %s: short file", r.path)
	}

	header, err := layout.DecodeHeader(r.region[:layout.HeaderSize])
	if err != nil {
		return fmt.Errorf("archive: %s: %w", r.path, err)
	}
	r.Header = header

	// spec.md §3: a write-in-progress bit seen alongside a physical
	// size beyond the declared XML tail means a prior writer crashed;
	// truncate the logical view back to the declared tail.
	data := []byte(r.region)
	xmlTail := int64(header.XMLData.Offset + header.XMLData.Size)
	if header.IsWriteInProgress() && int64(len(data)) > xmlTail && xmlTail > 0 {
		data = data[:xmlTail]
	}
	r.data = data

	src := readerAt{data: data}
	kind := compressionKind(header.Flags)

	offsetBuf, err := readFixedResource(src, header.OffsetTable, kind)
	if err != nil {
		return fmt.Errorf("archive: %s: offset table: %w", r.path, err)
	}
	rows := make([]layout.OffsetTableEntry, 0, len(offsetBuf)/layout.OffsetEntrySize)
	for off := 0; off+layout.OffsetEntrySize <= len(offsetBuf); off += layout.OffsetEntrySize {
		rows = append(rows, layout.DecodeOffsetTableEntry(offsetBuf[off:off+layout.OffsetEntrySize]))
	}
	r.OffsetRows = rows
	r.Store = dedup.LoadOffsetTable(rows)

	xmlBuf, err := readFixedResource(src, header.XMLData, kind)
	if err != nil {
		return fmt.Errorf("archive: %s: xml manifest: %w", r.path, err)
	}
	if len(xmlBuf) > 0 {
		m, err := manifest.Decode(xmlBuf)
		if err != nil {
			return fmt.Errorf("archive: %s: %w", r.path, err)
		}
		r.Manifest = m
	} else {
		r.Manifest = manifest.New()
	}

	if header.Integrity.Size > 0 {
		integrityBuf, err := readFixedResource(src, header.Integrity, kind)
		if err != nil {
			return fmt.Errorf("archive: %s: integrity table: %w", r.path, err)
		}
		table, err := layout.DecodeIntegrityTable(integrityBuf)
		if err != nil {
			return fmt.Errorf("archive: %s: %w", r.path, err)
		}
		r.Integrity = &table
	}

	return nil
}

// readFixedResource reads a whole resource described by h out of src
// (spec.md §1 Non-goals: "no streaming/partial read of a single
// compressed file; resources are read whole").
func readFixedResource(src io.ReaderAt, h layout.ResourceHeader, kind codec.Kind) ([]byte, error) {
	if h.Size == 0 && h.OriginalSize == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	_, err := chunkio.ReadResource(&buf, src, int64(h.Offset), chunkio.ReadOptions{
		Kind:             effectiveKind(h, kind),
		OnDiskSize:       h.Size,
		UncompressedSize: h.OriginalSize,
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func effectiveKind(h layout.ResourceHeader, archiveKind codec.Kind) codec.Kind {
	if !h.IsCompressed() {
		return codec.KindNone
	}

	return archiveKind
}

func compressionKind(flags uint32) codec.Kind {
	switch {
	case flags&layout.FlagCompressXPR != 0:
		return codec.KindXpress
	case flags&layout.FlagCompressLZX != 0:
		return codec.KindLZX
	default:
		return codec.KindNone
	}
}

// resourceBytes reads and decompresses the resource described by h from
// the archive's logical (possibly write-in-progress-truncated) view.
func (r *Reader) resourceBytes(h layout.ResourceHeader) ([]byte, error) {
	return readFixedResource(readerAt{data: r.data}, h, compressionKind(r.Header.Flags))
}
