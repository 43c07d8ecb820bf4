package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
	"github.com/wimpack/wim/metadata"
)

// securityInterner collects the distinct security-descriptor blobs seen
// during one capture/append and assigns each the SecurityID directory
// entries reference it by, per spec.md §3's security block: "a count of
// opaque descriptor blobs, referenced from directory entries by index."
type securityInterner struct {
	index map[string]int32
	list  [][]byte
}

func newSecurityInterner() *securityInterner {
	return &securityInterner{index: make(map[string]int32)}
}

func (s *securityInterner) intern(desc []byte) int32 {
	if len(desc) == 0 {
		return layout.NoSecurityID
	}

	key := string(desc)
	if id, ok := s.index[key]; ok {
		return id
	}

	id := int32(len(s.list))
	s.list = append(s.list, desc)
	s.index[key] = id

	return id
}

func (s *securityInterner) block() layout.SecurityBlock {
	return layout.SecurityBlock{Descriptors: s.list}
}

// hardlinkTracker assigns directory entries that refer to the same
// underlying file the same HardLinkLow/HardLinkHigh group, using
// os.SameFile rather than a platform-specific inode check so it works
// unmodified across every platform Go supports. Grouping is lazy: a
// file seen only once keeps group 0 ("not hard-linked"); a group ID is
// minted only once a second entry is found to share the same file,
// and is then back-filled onto the first entry's already-built node.
type hardlinkTracker struct {
	seen []os.FileInfo
	node []*metadata.Node
	next uint64
}

func (t *hardlinkTracker) register(info os.FileInfo, node *metadata.Node) {
	for i, s := range t.seen {
		if !os.SameFile(info, s) {
			continue
		}

		group := t.node[i].Entry.HardLinkGroup()
		if group == 0 {
			t.next++
			group = t.next
			t.node[i].Entry.HardLinkLow = uint32(group)
			t.node[i].Entry.HardLinkHigh = uint32(group >> 32)
		}
		node.Entry.HardLinkLow = uint32(group)
		node.Entry.HardLinkHigh = uint32(group >> 32)

		t.seen = append(t.seen, info)
		t.node = append(t.node, node)

		return
	}

	t.seen = append(t.seen, info)
	t.node = append(t.node, node)
}

// Capture creates a brand-new archive at path containing one image
// captured from sourceDir, per spec.md §4.8 capture. Per-path problems
// (spec.md §7: "a source file unreadable during capture is skipped
// with a warning") are collected and returned rather than aborting the
// whole operation.
func Capture(path, sourceDir string, opts ...Option) ([]Warning, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	w, err := CreateArchive(path, cfg)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	warnings, err := captureImage(w, cfg, sourceDir, 1)
	if err != nil {
		return warnings, err
	}

	return warnings, w.Commit()
}

// captureImage walks sourceDir into a fresh tree, writes its metadata
// resource, and inserts the manifest entry at index — the operation
// Capture and Append share, differing only in whether the transaction
// targets a new or existing archive and which index the image lands at.
func captureImage(w *Writer, cfg *Config, sourceDir string, index int) ([]Warning, error) {
	root := metadata.NewRoot()
	sec := newSecurityInterner()
	hl := &hardlinkTracker{}

	var warnings []Warning
	captureChildren(w, cfg, sec, hl, root, sourceDir, &warnings)

	payload := metadata.Build(root, sec.block())
	hash, err := w.AppendMetadata(payload)
	if err != nil {
		return warnings, fmt.Errorf("archive: write metadata resource: %w", err)
	}

	stats := metadata.ComputeStats(root, func(h [20]byte) uint64 {
		e, ok := w.Store().Lookup(wimhash.Hash(h))
		if !ok {
			return 0
		}
		return e.UncompressedSize
	})
	w.SetImage(index, hash, cfg.Name, cfg.Description, stats, time.Now())

	return warnings, nil
}

func captureChildren(w *Writer, cfg *Config, sec *securityInterner, hl *hardlinkTracker, parent *metadata.Node, dirPath string, warnings *[]Warning) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		*warnings = append(*warnings, Warning{Path: dirPath, Err: err})
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if cfg.Exclusions.Matches(name) {
			continue
		}

		childPath := filepath.Join(dirPath, name)
		node, err := captureNode(w, cfg, sec, hl, name, childPath)
		if err != nil {
			*warnings = append(*warnings, Warning{Path: childPath, Err: err})
			continue
		}
		parent.AddChild(node)

		if node.IsDir() {
			captureChildren(w, cfg, sec, hl, node, childPath, warnings)
		}
	}
}

func captureNode(w *Writer, cfg *Config, sec *securityInterner, hl *hardlinkTracker, name, path string) (*metadata.Node, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}

	node := &metadata.Node{}
	node.Entry.FileName = name
	node.Entry.SecurityID = layout.NoSecurityID
	node.Entry.CreationTime = layout.TimeToNTTicks(info.ModTime())
	node.Entry.LastWriteTime = node.Entry.CreationTime
	node.Entry.LastAccessTime = node.Entry.CreationTime

	if sd, serr := cfg.Capability.CaptureSecurityDescriptor(path); serr == nil {
		node.Entry.SecurityID = sec.intern(sd)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		tag, data, rerr := cfg.Capability.ReadReparsePoint(path)
		if rerr != nil {
			return nil, rerr
		}
		node.Entry.Attributes |= layout.AttrReparse
		node.Entry.ReparseTag = tag
		hash, werr := w.writeBlob(data)
		if werr != nil {
			return nil, werr
		}
		node.Entry.Hash = [20]byte(hash)

	case info.IsDir():
		node.Entry.Attributes |= layout.AttrDirectory

	default:
		f, oerr := os.Open(path)
		if oerr != nil {
			return nil, oerr
		}
		defer f.Close()

		hash, aerr := w.AppendContent(f, info.Size())
		if aerr != nil {
			return nil, aerr
		}
		node.Entry.Hash = [20]byte(hash)
		hl.register(info, node)

		if ads, aderr := cfg.Capability.EnumerateADS(path); aderr == nil {
			for _, a := range ads {
				data, rerr := io.ReadAll(a.Data)
				if rerr != nil {
					continue
				}
				sh, werr := w.writeBlob(data)
				if werr != nil {
					continue
				}
				node.Entry.Streams = append(node.Entry.Streams, layout.StreamEntry{Name: a.Name, Hash: [20]byte(sh)})
			}
		}
	}

	return node, nil
}
