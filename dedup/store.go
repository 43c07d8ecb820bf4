// Package dedup implements the archive's content-addressed offset table
// (spec.md §3 "Offset-table entry", §4.5 C5): a map keyed by the 20-byte
// SHA-1 of a resource's uncompressed content, carrying its location,
// sizes, flags, and reference count.
//
// It plays the role the teacher's blob.Set plays for time-series blobs —
// a single in-memory index a writer consults before emitting a new
// resource and a reader loads once from the on-disk table — except keyed
// by content hash rather than a numeric ID, per spec.md §9: "never
// compare keys by hex string."
package dedup

import (
	"sort"
	"sync"

	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
)

// Entry is one resource the store knows about: its location and size on
// disk, its uncompressed size, its resource flags, and how many directory
// entries across all images currently reference it.
type Entry struct {
	Offset           uint64
	OnDiskSize       uint64
	UncompressedSize uint64
	Flags            uint8
	RefCount         uint32
	PartNumber       uint16
}

// IsMetadata reports whether the entry is an image metadata resource
// rather than file content.
func (e *Entry) IsMetadata() bool { return e.Flags&layout.ResFlagMetadata != 0 }

// Store is the in-memory offset table: single-writer (the orchestrator
// of an archive.Writer transaction), consulted between resource
// emissions per spec.md §5 "Shared resources."
type Store struct {
	mu      sync.Mutex
	entries map[wimhash.Hash]*Entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[wimhash.Hash]*Entry)}
}

// Lookup returns the entry for hash, if any.
func (s *Store) Lookup(hash wimhash.Hash) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[hash]
	return e, ok
}

// Insert adds a brand-new entry, per spec.md §4.5: "insert with refcount
// 1" for a newly written resource. It overwrites any existing entry
// under hash; callers must Lookup first if that would be a bug.
func (s *Store) Insert(hash wimhash.Hash, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := e
	s.entries[hash] = &cp
}

// IncRef bumps an existing entry's reference count by one and reports
// whether the hash was known.
func (s *Store) IncRef(hash wimhash.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[hash]
	if !ok {
		return false
	}
	e.RefCount++

	return true
}

// DecRef decrements an existing entry's reference count by one, floored
// at zero. Per spec.md §4.5/§9, a zero refcount is not removed: "keep
// entries with refcount 0 so offsets remain valid."
func (s *Store) DecRef(hash wimhash.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[hash]
	if !ok || e.RefCount == 0 {
		return
	}
	e.RefCount--
}

// Len returns the number of entries in the store, including
// refcount-zero ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Entries returns a snapshot of every entry as a map keyed by hash; its
// iteration order is unspecified (use SortedHashes for a fixed order).
func (s *Store) Entries() map[wimhash.Hash]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[wimhash.Hash]Entry, len(s.entries))
	for h, e := range s.entries {
		out[h] = *e
	}

	return out
}

// SortedHashes returns every key in the store in a fixed, deterministic
// order (ascending byte order), used when a writer must choose a stable
// emission order (e.g. the offset-table row order archive.Writer.Commit
// writes).
func (s *Store) SortedHashes() []wimhash.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]wimhash.Hash, 0, len(s.entries))
	for h := range s.entries {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessHash(out[i], out[j])
	})

	return out
}

func lessHash(a, b wimhash.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}

	return false
}

// LoadOffsetTable populates the store from a decoded on-disk offset
// table, the shape archive.Open reads before any mutation (spec.md
// §4.8 append/update/delete: "reads existing offset table ... into C5
// with their current refcounts").
func LoadOffsetTable(rows []layout.OffsetTableEntry) *Store {
	s := New()
	for _, row := range rows {
		s.entries[wimhash.Hash(row.Hash)] = &Entry{
			Offset:           row.Header.Offset,
			OnDiskSize:       row.Header.Size,
			UncompressedSize: row.Header.OriginalSize,
			Flags:            row.Header.Flags,
			RefCount:         row.RefCount,
			PartNumber:       row.PartNumber,
		}
	}

	return s
}

// EncodeOffsetTable serializes every entry (including refcount-zero
// ones; compaction is an explicit export pass per spec.md §3) into the
// on-disk offset-table row order given by order, skipping any hash not
// present in the store.
func EncodeOffsetTable(s *Store, order []wimhash.Hash) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, 0, len(order)*layout.OffsetEntrySize)
	for _, h := range order {
		e, ok := s.entries[h]
		if !ok {
			continue
		}
		row := layout.OffsetTableEntry{
			Header: layout.ResourceHeader{
				Offset:       e.Offset,
				Size:         e.OnDiskSize,
				Flags:        e.Flags,
				OriginalSize: e.UncompressedSize,
			},
			PartNumber: e.PartNumber,
			RefCount:   e.RefCount,
			Hash:       h,
		}
		buf = append(buf, row.Encode()...)
	}

	return buf
}

// Prefilter is the cheap first-chunk-hash index of spec.md §4.5: "a
// chunk-hash table (built incrementally in memory)" consulted before
// committing to a full SHA-1 of a candidate file. It is an optimisation
// only — a miss here does not mean the full hash is unique, only that no
// known full hash shares this file's first 32 KiB.
type Prefilter struct {
	mu         sync.Mutex
	candidates map[wimhash.Hash][]wimhash.Hash
}

// NewPrefilter returns an empty Prefilter.
func NewPrefilter() *Prefilter {
	return &Prefilter{candidates: make(map[wimhash.Hash][]wimhash.Hash)}
}

// Candidates returns the full hashes previously recorded under the given
// first-chunk hash, if any.
func (p *Prefilter) Candidates(firstChunk wimhash.Hash) []wimhash.Hash {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]wimhash.Hash(nil), p.candidates[firstChunk]...)
}

// Add records that full is a known full-content hash for files sharing
// the first-chunk hash firstChunk.
func (p *Prefilter) Add(firstChunk, full wimhash.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.candidates[firstChunk] {
		if c == full {
			return
		}
	}
	p.candidates[firstChunk] = append(p.candidates[firstChunk], full)
}
