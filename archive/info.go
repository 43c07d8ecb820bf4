package archive

import (
	"path"

	"github.com/wimpack/wim/codec"
	"github.com/wimpack/wim/internal/wimhash"
	"github.com/wimpack/wim/metadata"
)

// Info summarizes an archive's header-level identity, per spec.md §4.8
// info: its GUID, split-set position, image count, compression, and
// whether it is marked read-only.
type Info struct {
	GUID        [16]byte
	PartNumber  uint16
	TotalParts  uint16
	ImageCount  uint32
	Compression codec.Kind
	ReadOnly    bool
}

// Stat returns the header-level Info for the archive at path. Named
// Stat rather than Info to avoid colliding with the Info type itself.
func Stat(path string) (Info, error) {
	r, err := Open(path)
	if err != nil {
		return Info{}, err
	}
	defer r.Close()

	return Info{
		GUID:        r.Header.GUID,
		PartNumber:  r.Header.PartNumber,
		TotalParts:  r.Header.TotalParts,
		ImageCount:  r.Header.ImageCount,
		Compression: compressionKind(r.Header.Flags),
		ReadOnly:    r.Header.IsReadOnly(),
	}, nil
}

// DirRow is one line of a directory listing: its path relative to the
// image root, whether it is a directory, its uncompressed content size
// (zero for directories and reparse points), and its raw attribute bits.
type DirRow struct {
	Path       string
	IsDir      bool
	Size       uint64
	Attributes uint32
}

// Dir lists every entry of the given image in depth-first order, per
// spec.md §4.8 dir.
func Dir(archivePath, imageID string) ([]DirRow, error) {
	r, err := Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, err := ResolveImage(r.Manifest, imageID)
	if err != nil {
		return nil, err
	}

	tree, err := r.ImageTree(img.Index)
	if err != nil {
		return nil, err
	}

	var rows []DirRow
	metadata.Walk(tree.Root, func(segs []string, n *metadata.Node) {
		if len(segs) == 0 {
			return
		}

		var size uint64
		if !n.IsDir() && !n.Entry.IsReparsePoint() {
			if e, ok := r.Store.Lookup(wimhash.Hash(n.Entry.Hash)); ok {
				size = e.UncompressedSize
			}
		}

		rows = append(rows, DirRow{
			Path:       path.Join(segs...),
			IsDir:      n.IsDir(),
			Size:       size,
			Attributes: n.Entry.Attributes,
		})
	})

	return rows, nil
}
