package archive

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wimpack/wim/chunkio"
	"github.com/wimpack/wim/codec"
	"github.com/wimpack/wim/dedup"
	"github.com/wimpack/wim/integrity"
	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
	"github.com/wimpack/wim/manifest"
	"github.com/wimpack/wim/metadata"
)

// Writer drives the write-in-progress state machine of spec.md §4.8:
// header read, write-in-progress bit set, resources appended, metadata
// resource written, offset table written, XML written, integrity table
// written (optional), write-in-progress bit cleared. Every mutating
// operation (capture, append, update, delete, export) builds one Writer
// (split builds one per part), appends whatever resources it needs,
// mutates the in-memory manifest/store, and calls Commit exactly once.
type Writer struct {
	path string
	file *os.File
	cfg  *Config

	header    layout.Header
	store     *dedup.Store
	prefilter *dedup.Prefilter
	manifest  *manifest.Manifest

	cursor int64 // byte offset at which the next resource is appended
}

// Config returns the transaction's configuration.
func (w *Writer) Config() *Config { return w.cfg }

// Store returns the transaction's dedup store.
func (w *Writer) Store() *dedup.Store { return w.store }

// Manifest returns the transaction's in-memory XML manifest.
func (w *Writer) Manifest() *manifest.Manifest { return w.manifest }

// GUID returns the archive's identity.
func (w *Writer) GUID() [16]byte { return w.header.GUID }

func applyCompressionFlags(h *layout.Header, kind codec.Kind) {
	switch kind {
	case codec.KindXpress:
		h.Flags |= layout.FlagCompressed | layout.FlagCompressXPR
		h.CompressSize = layout.ChunkSize
	case codec.KindLZX:
		h.Flags |= layout.FlagCompressed | layout.FlagCompressLZX
		h.CompressSize = layout.ChunkSize
	}
}

// CreateArchive starts a brand-new archive transaction at path, failing
// if a file already exists there (spec.md §4.8 capture fails closed
// rather than overwrite).
func CreateArchive(path string, cfg *Config) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("archive: create %s: %w", path, err)
	}

	w := &Writer{
		path:      path,
		file:      f,
		cfg:       cfg,
		store:     dedup.New(),
		prefilter: dedup.NewPrefilter(),
		manifest:  manifest.New(),
		cursor:    layout.HeaderSize,
	}
	w.header.GUID = newGUID()
	w.header.PartNumber = 1
	w.header.TotalParts = 1
	applyCompressionFlags(&w.header, cfg.Compression)
	w.header.Flags |= layout.FlagWriteInProgr

	if _, err := f.WriteAt(w.header.Encode(), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("archive: write header: %w", err)
	}

	return w, nil
}

// OpenForWrite starts a mutating transaction against an existing
// archive: it reads the current header/offset table/manifest into C5
// and the Writer (spec.md §4.8: "reads existing offset table ... with
// their current refcounts"), rejects a read-only archive, sets the
// write-in-progress bit, and positions new appends right after the
// current resource region (the old offset table's former location,
// which Commit overwrites along with everything after it).
func OpenForWrite(path string, cfg *Config) (*Writer, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if r.Header.IsReadOnly() {
		return nil, ErrReadOnly
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("archive: reopen %s: %w", path, err)
	}

	header := *r.Header
	header.Flags |= layout.FlagWriteInProgr
	if _, err := f.WriteAt(header.Encode(), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("archive: write header: %w", err)
	}

	cursor := int64(header.OffsetTable.Offset)
	if cursor == 0 {
		cursor = int64(layout.HeaderSize)
	}

	return &Writer{
		path:      path,
		file:      f,
		cfg:       cfg,
		header:    header,
		store:     r.Store,
		prefilter: dedup.NewPrefilter(),
		manifest:  r.Manifest,
		cursor:    cursor,
	}, nil
}

// Close releases the underlying file without committing. A Writer
// closed without a prior Commit leaves the write-in-progress bit set,
// the same state a crash mid-transaction would leave (spec.md §3: a
// reader truncates back to the declared XML tail on reopen).
func (w *Writer) Close() error {
	return w.file.Close()
}

func hashWholeFile(f *os.File) (wimhash.Hash, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return wimhash.Hash{}, err
	}
	h, err := wimhash.Full(f)
	if err != nil {
		return wimhash.Hash{}, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return wimhash.Hash{}, err
	}

	return h, nil
}

// writeResourcePayload writes one resource (file content or image
// metadata) to the archive body. If knownHash is non-nil and the store
// already carries it, the write is skipped entirely and the existing
// entry's refcount is bumped; otherwise the payload is written (hashing
// it on the fly if knownHash is nil) and, if the resulting hash turns
// out to collide with an entry already in the store, the newly written
// bytes are simply abandoned in place (the cursor is not advanced past
// them) rather than removed.
func (w *Writer) writeResourcePayload(r io.ReadSeeker, size int64, knownHash *wimhash.Hash, extraFlags uint8) (wimhash.Hash, error) {
	if knownHash != nil && w.store.IncRef(*knownHash) {
		return *knownHash, nil
	}

	start := w.cursor
	if _, err := w.file.Seek(start, io.SeekStart); err != nil {
		return wimhash.Hash{}, err
	}

	res, err := chunkio.WriteResource(w.file, r, chunkio.WriteOptions{
		Kind:             w.cfg.Compression,
		Workers:          w.cfg.Threads,
		Threshold:        w.cfg.Threshold,
		TakeHash:         knownHash == nil,
		UncompressedSize: size,
	})
	if err != nil {
		return wimhash.Hash{}, err
	}

	hash := res.Hash
	if knownHash != nil {
		hash = *knownHash
	}

	if w.store.IncRef(hash) {
		return hash, nil
	}

	flags := extraFlags
	if res.Compressed {
		flags |= layout.ResFlagCompressed
	}
	w.store.Insert(hash, dedup.Entry{
		Offset:           uint64(start),
		OnDiskSize:       res.OnDiskSize,
		UncompressedSize: res.UncompressedSize,
		Flags:            flags,
		RefCount:         1,
		PartNumber:       1,
	})
	w.cursor = start + int64(res.OnDiskSize)

	return hash, nil
}

// AppendContent dedupes and, if necessary, writes the content of src
// (exactly size bytes from its current position) into the archive body,
// returning its content hash. Per spec.md §4.5: a cheap first-32-KiB
// prefilter decides whether a full SHA-1 is worth computing before any
// compression work begins; a miss there skips straight to writing while
// hashing on the fly.
func (w *Writer) AppendContent(src *os.File, size int64) (wimhash.Hash, error) {
	if size == 0 {
		return wimhash.Hash{}, nil
	}

	firstHash, err := wimhash.FirstChunk(src, layout.ChunkSize)
	if err != nil {
		return wimhash.Hash{}, err
	}

	var knownHash *wimhash.Hash
	if candidates := w.prefilter.Candidates(firstHash); len(candidates) > 0 {
		full, err := hashWholeFile(src)
		if err != nil {
			return wimhash.Hash{}, err
		}
		knownHash = &full
	}

	hash, err := w.writeResourcePayload(src, size, knownHash, 0)
	if err != nil {
		return wimhash.Hash{}, err
	}
	w.prefilter.Add(firstHash, hash)

	return hash, nil
}

// writeBlob dedupes and writes a small in-memory blob (reparse data, an
// alternate data stream) as an ordinary content-addressed resource.
func (w *Writer) writeBlob(data []byte) (wimhash.Hash, error) {
	if len(data) == 0 {
		return wimhash.Hash{}, nil
	}
	hash := wimhash.Sum(data)
	return w.writeResourcePayload(bytes.NewReader(data), int64(len(data)), &hash, 0)
}

// AppendMetadata writes (or, on a content match, aliases) one image's
// metadata resource payload, returning its content hash. Aliasing two
// images onto the same metadata resource — spec.md §9's "image aliasing
// via identical metadata hash" — falls directly out of
// writeResourcePayload's dedup-by-hash behavior.
func (w *Writer) AppendMetadata(payload []byte) (wimhash.Hash, error) {
	hash := wimhash.Sum(payload)
	return w.writeResourcePayload(bytes.NewReader(payload), int64(len(payload)), &hash, layout.ResFlagMetadata)
}

// readCommittedResource reads and decompresses a resource already
// written within this transaction (or inherited from the archive being
// mutated) straight from the writer's file handle, keyed by content
// hash.
func (w *Writer) readCommittedResource(hash wimhash.Hash) ([]byte, error) {
	e, ok := w.store.Lookup(hash)
	if !ok {
		return nil, fmt.Errorf("%w: resource %s missing from offset table", ErrCorrupt, hex.EncodeToString(hash[:]))
	}

	return readFixedResource(w.file, resourceHeaderFromEntry(e), compressionKind(w.header.Flags))
}

// ImageTree parses the metadata tree for image index within this
// transaction (used by update/delete to find what to decref before
// replacing or removing an image).
func (w *Writer) ImageTree(index int) (*metadata.Tree, error) {
	img, ok := w.manifest.ImageByIndex(index)
	if !ok {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownImage, index)
	}

	hash, err := imageMetadataHash(img)
	if err != nil {
		return nil, err
	}

	data, err := w.readCommittedResource(hash)
	if err != nil {
		return nil, fmt.Errorf("archive: image %d metadata: %w", index, err)
	}

	tree, err := metadata.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("archive: image %d: %w", index, err)
	}

	return tree, nil
}

// decrefTree decrements the store refcount once for every directory
// entry in tree that references non-zero content — not once per
// distinct hash, since a dedup entry's refcount counts directory-entry
// references (hard-linked files included), per dedup.Store's doc
// comment.
func (w *Writer) decrefTree(tree *metadata.Tree) {
	for hash, nodes := range tree.ByHash {
		if hash.IsZero() {
			continue
		}
		for range nodes {
			w.store.DecRef(hash)
		}
	}
}

// SetImage inserts or replaces the manifest entry at the given 1-based
// index with fresh stats and the given metadata-resource hash, per
// spec.md §4.7 "recomputed TOTALBYTES" / §4.8 append/update.
func (w *Writer) SetImage(index int, hash wimhash.Hash, name, description string, stats metadata.Stats, when time.Time) manifest.Image {
	ticks := layout.TimeToNTTicks(when)
	img := manifest.Image{
		Index:                index,
		Name:                 name,
		Description:          description,
		DirCount:             stats.DirCount,
		FileCount:            stats.FileCount,
		TotalBytes:           stats.TotalBytes,
		HardLinkBytes:        stats.HardLinkBytes,
		CreationTime:         manifest.NewNTTime(ticks),
		LastModificationTime: manifest.NewNTTime(ticks),
		MetadataHash:         hex.EncodeToString(hash[:]),
	}
	w.manifest.Upsert(img)

	return img
}

// DecrefImage decrements the refcount of everything image index owns —
// its content resources and its own metadata resource — without
// touching the manifest. Update uses this alone (the replacement
// capture then overwrites the same manifest slot via SetImage); delete
// uses it followed by a manifest removal.
func (w *Writer) DecrefImage(index int) error {
	img, ok := w.manifest.ImageByIndex(index)
	if !ok {
		return fmt.Errorf("%w: index %d", ErrUnknownImage, index)
	}

	hash, err := imageMetadataHash(img)
	if err != nil {
		return err
	}

	tree, err := w.ImageTree(index)
	if err != nil {
		return err
	}

	w.decrefTree(tree)
	w.store.DecRef(hash)

	return nil
}

// RemoveImage decrefs everything image index owns, then removes it from
// the manifest and renumbers later images, per spec.md §4.8 delete:
// "decrements refcounts ... no compaction."
func (w *Writer) RemoveImage(index int) error {
	if err := w.DecrefImage(index); err != nil {
		return err
	}
	w.manifest.Remove(index)

	return nil
}

func (w *Writer) writeRawTable(data []byte) (layout.ResourceHeader, error) {
	start := w.cursor
	if _, err := w.file.Seek(start, io.SeekStart); err != nil {
		return layout.ResourceHeader{}, err
	}
	n, err := w.file.Write(data)
	if err != nil {
		return layout.ResourceHeader{}, err
	}
	w.cursor = start + int64(n)

	return layout.ResourceHeader{Offset: uint64(start), Size: uint64(n), OriginalSize: uint64(n)}, nil
}

// Commit finalizes the transaction: writes the offset table (in a
// fixed, deterministic hash-ascending order), the XML manifest, and —
// if configured — the integrity table, then rewrites the header with
// every resource pointer filled in and the write-in-progress bit
// cleared, per spec.md §4.8's state machine tail.
func (w *Writer) Commit() error {
	order := w.store.SortedHashes()
	offsetBytes := dedup.EncodeOffsetTable(w.store, order)
	offsetHeader, err := w.writeRawTable(offsetBytes)
	if err != nil {
		return fmt.Errorf("archive: write offset table: %w", err)
	}
	w.header.OffsetTable = offsetHeader

	xmlBytes, err := manifest.Encode(w.manifest, uint64(w.cursor))
	if err != nil {
		return fmt.Errorf("archive: encode xml manifest: %w", err)
	}
	xmlHeader, err := w.writeRawTable(xmlBytes)
	if err != nil {
		return fmt.Errorf("archive: write xml manifest: %w", err)
	}
	w.header.XMLData = xmlHeader

	if w.cfg.Check {
		table, err := integrity.Build(w.file, layout.HeaderSize, int64(offsetHeader.Offset+offsetHeader.Size))
		if err != nil {
			return fmt.Errorf("archive: build integrity table: %w", err)
		}
		integrityHeader, err := w.writeRawTable(table.Encode())
		if err != nil {
			return fmt.Errorf("archive: write integrity table: %w", err)
		}
		w.header.Integrity = integrityHeader
	}

	w.header.ImageCount = uint32(len(w.manifest.Images))
	w.header.Flags &^= layout.FlagWriteInProgr

	if _, err := w.file.WriteAt(w.header.Encode(), 0); err != nil {
		return fmt.Errorf("archive: write header: %w", err)
	}

	return w.file.Sync()
}
