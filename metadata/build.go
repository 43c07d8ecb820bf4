package metadata

import "github.com/wimpack/wim/internal/layout"

// offsetPatch records a forward reference: the byte offset of a
// directory entry's SubdirOffset field, to be filled in once that
// directory's children are actually laid out.
type offsetPatch struct {
	at    int
	value uint64
}

// Build serializes root (and its descendants) plus the security block
// into the byte payload of an image metadata resource, per spec.md §4.6
// "Building": each directory's children are a
// contiguous, null-terminated run, and a directory's SubdirOffset points
// at where its own children's run begins.
//
// Build lays out directories in breadth-first queue order: each
// directory is processed (its children written, then a null
// terminator) in the order its parent entry was encoded, keeping
// siblings contiguous as spec.md requires while remaining "any stable
// order" as spec.md §4.6 permits.
func Build(root *Node, security layout.SecurityBlock) []byte {
	buf := append([]byte(nil), security.Encode()...)

	var patches []offsetPatch

	rootOff := len(buf)
	buf = append(buf, root.Entry.Encode()...)
	for _, s := range root.Entry.Streams {
		buf = append(buf, s.Encode()...)
	}
	patches = append(patches, offsetPatch{at: rootOff + layout.SubdirOffsetFieldOffset})

	type queued struct {
		node     *Node
		patchIdx int
	}
	queue := []queued{{node: root, patchIdx: 0}}

	for i := 0; i < len(queue); i++ {
		q := queue[i]

		childrenStart := len(buf)
		patches[q.patchIdx].value = uint64(childrenStart)

		for _, child := range q.node.Children {
			childOff := len(buf)
			buf = append(buf, child.Entry.Encode()...)
			for _, s := range child.Entry.Streams {
				buf = append(buf, s.Encode()...)
			}

			if child.IsDir() {
				patches = append(patches, offsetPatch{at: childOff + layout.SubdirOffsetFieldOffset})
				queue = append(queue, queued{node: child, patchIdx: len(patches) - 1})
			}
		}

		buf = append(buf, make([]byte, 8)...) // end-of-directory null marker
	}

	for _, p := range patches {
		layout.LE.PutUint64(buf[p.at:p.at+8], p.value)
	}

	return buf
}
