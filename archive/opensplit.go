package archive

import "fmt"

// SplitSet is every part of one split archive, opened together, in
// part-number order.
type SplitSet struct {
	Parts []*Reader
}

// Close closes every part.
func (s *SplitSet) Close() error {
	return closeAll(s.Parts)
}

func closeAll(parts []*Reader) error {
	var first error
	for _, p := range parts {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// OpenSplit opens a whole split set given the path to its first part
// (base.swm), validating that every other part shares its GUID and
// total-parts count and carries the part number its filename implies,
// per spec.md §4.8's split-set naming convention.
func OpenSplit(firstPart string) (*SplitSet, error) {
	first, err := Open(firstPart)
	if err != nil {
		return nil, err
	}

	if first.Header.PartNumber != 1 {
		first.Close()
		return nil, fmt.Errorf("%w: %s is not part 1", ErrSplitSetMismatch, firstPart)
	}

	total := first.Header.TotalParts
	guid := first.Header.GUID
	base, ext := splitBaseExt(firstPart)

	parts := []*Reader{first}
	for n := uint16(2); n <= total; n++ {
		p, err := Open(partPath(base, ext, n))
		if err != nil {
			closeAll(parts)
			return nil, err
		}

		if p.Header.GUID != guid || p.Header.TotalParts != total || p.Header.PartNumber != n {
			closeAll(parts)
			p.Close()
			return nil, fmt.Errorf("%w: part %d of %s", ErrSplitSetMismatch, n, base)
		}

		parts = append(parts, p)
	}

	return &SplitSet{Parts: parts}, nil
}
