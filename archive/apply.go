package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
	"github.com/wimpack/wim/metadata"
)

// Apply materializes one image from the archive at archivePath onto
// destDir, per spec.md §4.8 apply: recreates the directory structure,
// decompresses each distinct content hash once and writes it to the
// first path that references it, and materializes every later
// reference to the same hash as a hard link — falling back to a copy
// if the platform capability cannot link — then replays timestamps and
// the captured security descriptor bottom-up, directories last.
func Apply(archivePath, imageID, destDir string, opts ...Option) error {
	cfg, err := newConfig(opts...)
	if err != nil {
		return err
	}

	if fi, statErr := os.Stat(destDir); statErr != nil || !fi.IsDir() {
		return ErrDestinationMissing
	}

	r, err := Open(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	img, err := ResolveImage(r.Manifest, imageID)
	if err != nil {
		return err
	}

	tree, err := r.ImageTree(img.Index)
	if err != nil {
		return err
	}

	materialized := make(map[wimhash.Hash]string)
	for _, child := range tree.Root.Children {
		childPath := filepath.Join(destDir, child.Entry.FileName)
		if err := materialize(r, tree, child, childPath, cfg, materialized); err != nil {
			return fmt.Errorf("archive: apply %s: %w", childPath, err)
		}
	}

	return nil
}

func materialize(r *Reader, tree *metadata.Tree, node *metadata.Node, destPath string, cfg *Config, materialized map[wimhash.Hash]string) error {
	switch {
	case node.IsDir():
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			return err
		}
		for _, child := range node.Children {
			childPath := filepath.Join(destPath, child.Entry.FileName)
			if err := materialize(r, tree, child, childPath, cfg, materialized); err != nil {
				return err
			}
		}

		return applyAttributes(cfg, destPath, &node.Entry, tree)

	case node.Entry.IsReparsePoint():
		data, err := contentFor(r, node.Entry.Hash)
		if err != nil {
			return err
		}
		if werr := cfg.Capability.WriteReparsePoint(destPath, node.Entry.ReparseTag, data); werr != nil {
			if node.Entry.ReparseTag != layout.ReparseTagSymlink {
				return werr
			}
			if serr := cfg.Capability.CreateSymlink(string(data), destPath); serr != nil {
				return serr
			}
		}

		return applyAttributes(cfg, destPath, &node.Entry, tree)

	default:
		hash := wimhash.Hash(node.Entry.Hash)
		switch {
		case hash.IsZero():
			f, err := os.Create(destPath)
			if err != nil {
				return err
			}
			f.Close()

		case materialized[hash] != "":
			existing := materialized[hash]
			if err := cfg.Capability.CreateHardLink(existing, destPath); err != nil {
				if cerr := copyFile(existing, destPath); cerr != nil {
					return cerr
				}
			}

		default:
			data, err := contentFor(r, node.Entry.Hash)
			if err != nil {
				return err
			}
			if err := os.WriteFile(destPath, data, 0o644); err != nil {
				return err
			}
			materialized[hash] = destPath
		}

		return applyAttributes(cfg, destPath, &node.Entry, tree)
	}
}

func applyAttributes(cfg *Config, path string, entry *layout.DirEntry, tree *metadata.Tree) error {
	if entry.HasSecurityDescriptor() && int(entry.SecurityID) < len(tree.Security.Descriptors) {
		_ = cfg.Capability.ApplySecurityDescriptor(path, tree.Security.Descriptors[entry.SecurityID])
	}

	mtime := layout.NTTicksToTime(entry.LastWriteTime)
	atime := layout.NTTicksToTime(entry.LastAccessTime)

	return os.Chtimes(path, atime, mtime)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, 0o644)
}

func contentFor(r *Reader, hash [20]byte) ([]byte, error) {
	h := wimhash.Hash(hash)
	if h.IsZero() {
		return nil, nil
	}

	e, ok := r.Store.Lookup(h)
	if !ok {
		return nil, fmt.Errorf("%w: resource %x missing from offset table", ErrCorrupt, h[:])
	}

	return r.resourceBytes(resourceHeaderFromEntry(e))
}
