package archive

import (
	"fmt"
	"os"
	"time"

	"github.com/wimpack/wim/internal/wimhash"
	"github.com/wimpack/wim/metadata"
)

// Export copies one image from the archive at srcPath into the archive
// at dstPath, creating dstPath if it does not already exist, per
// spec.md §4.8 export. Every distinct content hash the source image's
// tree references is written to the destination once, and its
// destination refcount is bumped once per directory-entry reference
// that names it (not once per hash), so the destination's refcounts end
// up correct even when the source image itself has hard-linked files.
func Export(srcPath, imageID, dstPath string, opts ...Option) error {
	cfg, err := newConfig(opts...)
	if err != nil {
		return err
	}

	src, err := Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	img, err := ResolveImage(src.Manifest, imageID)
	if err != nil {
		return err
	}

	tree, err := src.ImageTree(img.Index)
	if err != nil {
		return err
	}

	var w *Writer
	if _, statErr := os.Stat(dstPath); statErr != nil {
		w, err = CreateArchive(dstPath, cfg)
	} else {
		w, err = OpenForWrite(dstPath, cfg)
	}
	if err != nil {
		return err
	}
	defer w.Close()

	for hash, nodes := range tree.ByHash {
		if hash.IsZero() {
			continue
		}

		e, ok := src.Store.Lookup(hash)
		if !ok || e.RefCount == 0 {
			continue
		}

		data, err := src.resourceBytes(resourceHeaderFromEntry(e))
		if err != nil {
			return fmt.Errorf("archive: export resource %x: %w", hash[:], err)
		}

		for range nodes {
			if _, err := w.writeBlob(data); err != nil {
				return fmt.Errorf("archive: export resource %x: %w", hash[:], err)
			}
		}
	}

	payload := metadata.Build(tree.Root, tree.Security)
	metaHash, err := w.AppendMetadata(payload)
	if err != nil {
		return fmt.Errorf("archive: export metadata: %w", err)
	}

	stats := metadata.ComputeStats(tree.Root, func(h [20]byte) uint64 {
		e, ok := w.Store().Lookup(wimhash.Hash(h))
		if !ok {
			return 0
		}
		return e.UncompressedSize
	})

	index := len(w.Manifest().Images) + 1
	w.SetImage(index, metaHash, img.Name, img.Description, stats, time.Now())

	return w.Commit()
}
