// Package integrity builds and verifies the archive's optional
// integrity table (spec.md §3 "Integrity table", §4.9 C9): SHA-1
// digests over contiguous 10-MiB windows of the archive body, from the
// end of the header through the end of the offset table.
package integrity

import (
	"fmt"
	"io"

	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
)

// WindowSize is the fixed window size hashed by each entry, re-exported
// from layout for callers that only need this package.
const WindowSize = layout.IntegrityWindowSize

// Build hashes the archive body in src from byte offset start up to (and
// excluding) end into consecutive WindowSize windows (the last may be
// shorter), per spec.md §3/§4.9, producing one digest per window.
func Build(src io.ReaderAt, start, end int64) (layout.IntegrityTable, error) {
	if end < start {
		return layout.IntegrityTable{}, fmt.Errorf("integrity: end %d before start %d", end, start)
	}

	var digests [][20]byte
	buf := make([]byte, WindowSize)

	for off := start; off < end; off += WindowSize {
		n := int64(WindowSize)
		if remaining := end - off; remaining < n {
			n = remaining
		}

		window := buf[:n]
		if _, err := src.ReadAt(window, off); err != nil && err != io.EOF {
			return layout.IntegrityTable{}, fmt.Errorf("integrity: read window at %d: %w", off, err)
		}

		digests = append(digests, wimhash.Sum(window))
	}

	return layout.IntegrityTable{ChunkSize: WindowSize, Digests: digests}, nil
}

// Mismatch describes one integrity-table window whose recorded digest
// does not match the archive's current content.
type Mismatch struct {
	WindowIndex int
	Offset      int64
}

// Verify recomputes digests over src from start through end and compares
// them against table, returning every window whose digest does not
// match (spec.md §7: "reported in aggregate").
func Verify(src io.ReaderAt, start, end int64, table layout.IntegrityTable) ([]Mismatch, error) {
	fresh, err := Build(src, start, end)
	if err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	n := len(table.Digests)
	if len(fresh.Digests) < n {
		n = len(fresh.Digests)
	}
	for i := 0; i < n; i++ {
		if table.Digests[i] != fresh.Digests[i] {
			mismatches = append(mismatches, Mismatch{WindowIndex: i, Offset: start + int64(i)*WindowSize})
		}
	}
	if len(fresh.Digests) != len(table.Digests) {
		mismatches = append(mismatches, Mismatch{WindowIndex: -1})
	}

	return mismatches, nil
}
