package archive

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wimpack/wim/internal/wimhash"
	"github.com/wimpack/wim/manifest"
)

// Split divides the archive at path into a set of part files no larger
// than maxBytes each, per spec.md §4.8 split: part 1 (base.swm) carries
// every image's metadata resource and the full XML manifest; content
// resources are packed largest-first into size-bounded parts, a
// resource bigger than maxBytes on its own still gets a whole part to
// itself. Returns the part paths in order.
func Split(path string, maxBytes int64, opts ...Option) ([]string, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	metaHashes := make(map[wimhash.Hash]bool)
	for i := range r.Manifest.Images {
		h, err := imageMetadataHash(&r.Manifest.Images[i])
		if err != nil {
			return nil, err
		}
		metaHashes[h] = true
	}

	type sized struct {
		hash wimhash.Hash
		size int64
	}
	var content []sized
	for _, row := range r.OffsetRows {
		h := wimhash.Hash(row.Hash)
		if row.RefCount == 0 || metaHashes[h] {
			continue
		}
		content = append(content, sized{hash: h, size: int64(row.Header.Size)})
	}
	sort.Slice(content, func(i, j int) bool { return content[i].size > content[j].size })

	var metaSize int64
	for h := range metaHashes {
		if e, ok := r.Store.Lookup(h); ok {
			metaSize += int64(e.OnDiskSize)
		}
	}

	bins := [][]wimhash.Hash{{}}
	binSizes := []int64{metaSize}
	for h := range metaHashes {
		bins[0] = append(bins[0], h)
	}

	for _, c := range content {
		placed := false
		for i := range bins {
			if binSizes[i]+c.size <= maxBytes {
				bins[i] = append(bins[i], c.hash)
				binSizes[i] += c.size
				placed = true
				break
			}
		}
		if !placed {
			bins = append(bins, []wimhash.Hash{c.hash})
			binSizes = append(binSizes, c.size)
		}
	}

	base, _ := splitBaseExt(path)
	ext := ".swm"
	guid := r.Header.GUID
	total := uint16(len(bins))

	var parts []string
	for i, bin := range bins {
		partNum := uint16(i + 1)
		pPath := partPath(base, ext, partNum)

		if err := writeSplitPart(r, bin, metaHashes, pPath, guid, partNum, total, cfg); err != nil {
			return parts, fmt.Errorf("archive: split part %d: %w", partNum, err)
		}
		parts = append(parts, pPath)
	}

	return parts, nil
}

// writeSplitPart emits one split-set part: the given resource hashes
// (each copied with its original refcount), and — only for part 1 —
// every image's metadata resource and the full XML manifest.
func writeSplitPart(r *Reader, hashes []wimhash.Hash, metaHashes map[wimhash.Hash]bool, pPath string, guid [16]byte, partNum, total uint16, cfg *Config) error {
	w, err := CreateArchive(pPath, cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	w.header.GUID = guid
	w.header.PartNumber = partNum
	w.header.TotalParts = total

	for _, h := range hashes {
		e, ok := r.Store.Lookup(h)
		if !ok {
			continue
		}
		data, err := r.resourceBytes(resourceHeaderFromEntry(e))
		if err != nil {
			return err
		}

		isMeta := metaHashes[h]
		for i := uint32(0); i < e.RefCount; i++ {
			var werr error
			if isMeta {
				_, werr = w.AppendMetadata(data)
			} else {
				_, werr = w.writeBlob(data)
			}
			if werr != nil {
				return werr
			}
		}
	}

	if partNum == 1 {
		w.manifest = cloneManifest(r.Manifest)
	}

	return w.Commit()
}

// cloneManifest returns a deep-enough copy of m so two Writers built
// from the same source archive do not share the Images backing array
// (Manifest.Upsert/Remove mutate it in place).
func cloneManifest(m *manifest.Manifest) *manifest.Manifest {
	out := &manifest.Manifest{TotalBytes: m.TotalBytes}
	out.Images = append([]manifest.Image(nil), m.Images...)

	return out
}

// splitBaseExt separates path into the stem and extension a split set's
// filenames are built from: base.swm for part 1, baseN.swm for part N.
func splitBaseExt(path string) (string, string) {
	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext), ext
}

// partPath builds the filename for part n of a split set, per the
// convention base.swm (no suffix) for part 1, baseN.swm for part N>=2.
func partPath(base, ext string, n uint16) string {
	if n == 1 {
		return base + ext
	}

	return fmt.Sprintf("%s%d%s", base, n, ext)
}
