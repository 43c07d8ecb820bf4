package archive

import (
	"bytes"
	"fmt"

	"github.com/wimpack/wim/chunkio"
	"github.com/wimpack/wim/integrity"
	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
)

// VerifyResult summarizes a Test run: how many resources were checked,
// which ones recomputed to a different SHA-1 than their offset-table
// key, and any integrity-table window mismatches.
type VerifyResult struct {
	Checked   int
	Corrupt   []wimhash.Hash
	Integrity []integrity.Mismatch
}

// Test decompresses every referenced resource in the archive at path
// and compares its recomputed SHA-1 against the offset-table key that
// names it, and — if the archive carries one — verifies the integrity
// table, per spec.md §4.8 test / §4.9 C9. Refcount-zero resources are
// skipped: they are dead weight kept only so later offsets stay valid,
// not part of any live image.
func Test(path string) (VerifyResult, error) {
	r, err := Open(path)
	if err != nil {
		return VerifyResult{}, err
	}
	defer r.Close()

	var result VerifyResult
	kind := compressionKind(r.Header.Flags)
	src := readerAt{data: r.data}

	for _, row := range r.OffsetRows {
		if row.RefCount == 0 {
			continue
		}
		result.Checked++

		var buf bytes.Buffer
		hash, err := chunkio.ReadResource(&buf, src, int64(row.Header.Offset), chunkio.ReadOptions{
			Kind:             effectiveKind(row.Header, kind),
			OnDiskSize:       row.Header.Size,
			UncompressedSize: row.Header.OriginalSize,
			TakeHash:         true,
		})
		if err != nil || wimhash.Hash(row.Hash) != hash {
			result.Corrupt = append(result.Corrupt, wimhash.Hash(row.Hash))
		}
	}

	if r.Integrity != nil {
		end := int64(r.Header.OffsetTable.Offset + r.Header.OffsetTable.Size)
		mismatches, err := integrity.Verify(src, layout.HeaderSize, end, *r.Integrity)
		if err != nil {
			return result, fmt.Errorf("archive: verify integrity table: %w", err)
		}
		result.Integrity = mismatches
	}

	return result, nil
}
