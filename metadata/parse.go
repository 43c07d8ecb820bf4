package metadata

import (
	"errors"
	"fmt"

	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
)

// ErrFormat is returned when a metadata resource's directory-entry
// stream cannot be decoded consistently (spec.md §7 "Format error").
var ErrFormat = errors.New("metadata: malformed directory tree")

// Tree is a parsed image metadata resource: its security block, its
// root node, and two indexes used by apply/test/export — a multimap
// from content hash to every directory entry referencing it (spec.md
// §4.6 step 3), and a map from a directory's children-start offset to
// the directory node (step 4).
type Tree struct {
	Security     layout.SecurityBlock
	Root         *Node
	ByHash       map[wimhash.Hash][]*Node
	DirsByOffset map[uint64]*Node
}

// Parse decodes a metadata resource's payload into a Tree: it reads the
// security block, then reads entries in sequence by length, one
// null-terminated run per directory. The runs are taken in the order
// their directory entries were decoded (the breadth-first layout Build
// writes), and each run must begin exactly where the previous one
// ended; a resource whose runs are laid out in any other order is
// rejected with ErrFormat.
func Parse(data []byte) (*Tree, error) {
	sec, consumed, err := layout.DecodeSecurityBlock(data)
	if err != nil {
		return nil, fmt.Errorf("metadata: security block: %w", err)
	}

	cursor := consumed
	rootEntry, rootStreams, n, err := decodeEntryWithStreams(data, cursor)
	if err != nil {
		return nil, fmt.Errorf("metadata: root entry: %w", err)
	}
	if n == 8 {
		return nil, fmt.Errorf("%w: missing root entry", ErrFormat)
	}
	cursor += n

	root := &Node{Entry: rootEntry}
	root.Entry.Streams = rootStreams

	byHash := make(map[wimhash.Hash][]*Node)
	dirsByOffset := make(map[uint64]*Node)
	pending := map[uint64]*Node{rootEntry.SubdirOffset: root}
	order := []uint64{rootEntry.SubdirOffset}
	processed := make(map[uint64]bool)

	recordHash := func(node *Node) {
		h := wimhash.Hash(node.Entry.Hash)
		byHash[h] = append(byHash[h], node)
	}
	recordHash(root)

	for qi := 0; qi < len(order); qi++ {
		offset := order[qi]
		if processed[offset] {
			continue
		}
		processed[offset] = true

		owner, ok := pending[offset]
		if !ok {
			return nil, fmt.Errorf("%w: dangling subdir offset %d", ErrFormat, offset)
		}
		dirsByOffset[offset] = owner

		if int(offset) != cursor {
			return nil, fmt.Errorf("%w: cursor %d does not match expected subdir offset %d", ErrFormat, cursor, offset)
		}

		for {
			entry, streams, consumed, err := decodeEntryWithStreams(data, cursor)
			if err != nil {
				return nil, err
			}
			cursor += consumed
			if consumed == 8 && entry.Length == 0 {
				break
			}

			node := &Node{Entry: entry}
			node.Entry.Streams = streams
			owner.Children = append(owner.Children, node)
			recordHash(node)

			if node.IsDir() {
				if _, seen := pending[entry.SubdirOffset]; !seen {
					pending[entry.SubdirOffset] = node
					order = append(order, entry.SubdirOffset)
				}
			}
		}
	}

	return &Tree{Security: sec, Root: root, ByHash: byHash, DirsByOffset: dirsByOffset}, nil
}

// decodeEntryWithStreams decodes one directory entry (or the 8-byte
// end-of-directory marker) starting at data[at], plus any stream
// entries that immediately follow it, returning the total bytes
// consumed by both.
func decodeEntryWithStreams(data []byte, at int) (layout.DirEntry, []layout.StreamEntry, int, error) {
	if at > len(data) {
		return layout.DirEntry{}, nil, 0, fmt.Errorf("%w: offset %d beyond resource of %d bytes", ErrFormat, at, len(data))
	}

	entry, streamCount, consumed, err := layout.DecodeDirEntry(data[at:])
	if err != nil {
		return layout.DirEntry{}, nil, 0, fmt.Errorf("metadata: %w", err)
	}
	if consumed == 8 && entry.Length == 0 {
		return entry, nil, consumed, nil
	}

	streams := make([]layout.StreamEntry, 0, streamCount)
	off := at + consumed
	for i := 0; i < streamCount; i++ {
		s, n, err := layout.DecodeStreamEntry(data[off:])
		if err != nil {
			return layout.DirEntry{}, nil, 0, fmt.Errorf("metadata: stream entry: %w", err)
		}
		streams = append(streams, s)
		off += n
		consumed += n
	}

	return entry, streams, consumed, nil
}
