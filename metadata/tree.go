package metadata

import "github.com/wimpack/wim/internal/layout"

// Node is one entry in an in-memory directory tree: a directory entry
// plus, for directories, its children in the order they should be
// listed. Non-directory nodes (files, reparse points) leave Children
// nil.
type Node struct {
	Entry    layout.DirEntry
	Children []*Node
}

// NewRoot returns the root node of a fresh tree: an empty-named
// directory entry, per spec.md §4.6 step 2.
func NewRoot() *Node {
	root := &Node{}
	root.Entry.Attributes = layout.AttrDirectory
	root.Entry.SecurityID = layout.NoSecurityID

	return root
}

// IsDir reports whether n represents a directory.
func (n *Node) IsDir() bool { return n.Entry.IsDirectory() }

// AddChild appends child to n's children. n must be a directory.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// Walk visits root and every descendant in depth-first pre-order,
// calling fn with each node's path segments from the root (root itself
// is visited with an empty path slice).
func Walk(root *Node, fn func(path []string, n *Node)) {
	walk(root, nil, fn)
}

func walk(n *Node, path []string, fn func([]string, *Node)) {
	fn(path, n)
	for _, c := range n.Children {
		childPath := append(append([]string(nil), path...), c.Entry.FileName)
		walk(c, childPath, fn)
	}
}

// Stats summarizes a tree for the XML manifest (spec.md §3's XML
// manifest fields DIRCOUNT/FILECOUNT/TOTALBYTES/HARDLINKBYTES). Sizes
// come from a caller-supplied lookup since a directory entry only
// carries a content hash, not a size (spec.md §3: the content size is
// the dedup store's concern, not the tree's).
type Stats struct {
	DirCount      uint64
	FileCount     uint64
	TotalBytes    uint64
	HardLinkBytes uint64
}

// ComputeStats walks root and accumulates Stats. sizeOf returns the
// uncompressed content size for a given content hash (zero hash yields
// whatever sizeOf returns for it, normally 0). DIRCOUNT excludes the
// root per spec.md §4.7.
func ComputeStats(root *Node, sizeOf func(hash [20]byte) uint64) Stats {
	var st Stats
	seenHardLinkGroups := make(map[uint64]bool)

	Walk(root, func(path []string, n *Node) {
		if len(path) == 0 {
			return // root excluded from DIRCOUNT
		}
		if n.IsDir() {
			st.DirCount++
			return
		}

		st.FileCount++
		size := sizeOf(n.Entry.Hash)
		st.TotalBytes += size

		if group := n.Entry.HardLinkGroup(); group != 0 {
			if seenHardLinkGroups[group] {
				st.HardLinkBytes += size
			} else {
				seenHardLinkGroups[group] = true
			}
		}
	})

	return st
}
