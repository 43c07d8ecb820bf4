package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
)

func TestInsertAndLookup(t *testing.T) {
	s := New()
	h := wimhash.Sum([]byte("hello"))
	s.Insert(h, Entry{Offset: 208, OnDiskSize: 5, UncompressedSize: 5, RefCount: 1})

	e, ok := s.Lookup(h)
	require.True(t, ok)
	assert.EqualValues(t, 1, e.RefCount)
}

func TestIncRefDecRefFloor(t *testing.T) {
	s := New()
	h := wimhash.Sum([]byte("a"))

	assert.False(t, s.IncRef(h), "unknown hash")

	s.Insert(h, Entry{RefCount: 1})
	require.True(t, s.IncRef(h))
	e, _ := s.Lookup(h)
	assert.EqualValues(t, 2, e.RefCount)

	s.DecRef(h)
	s.DecRef(h)
	s.DecRef(h) // must not go negative
	e, _ = s.Lookup(h)
	assert.EqualValues(t, 0, e.RefCount)
}

func TestSortedHashesDeterministic(t *testing.T) {
	s := New()
	h1 := wimhash.Sum([]byte("a"))
	h2 := wimhash.Sum([]byte("b"))
	s.Insert(h1, Entry{})
	s.Insert(h2, Entry{})

	first := s.SortedHashes()
	second := s.SortedHashes()
	assert.Equal(t, first, second)
}

func TestLoadAndEncodeOffsetTableRoundTrip(t *testing.T) {
	h := wimhash.Sum([]byte("hello"))
	rows := []layout.OffsetTableEntry{
		{
			Header:     layout.ResourceHeader{Offset: 208, Size: 5, OriginalSize: 5},
			PartNumber: 1,
			RefCount:   2,
			Hash:       h,
		},
	}

	s := LoadOffsetTable(rows)
	e, ok := s.Lookup(h)
	require.True(t, ok)
	assert.EqualValues(t, 2, e.RefCount)

	buf := EncodeOffsetTable(s, []wimhash.Hash{h})
	require.Len(t, buf, layout.OffsetEntrySize)

	got := layout.DecodeOffsetTableEntry(buf)
	assert.Equal(t, rows[0].Hash, got.Hash)
	assert.Equal(t, rows[0].RefCount, got.RefCount)
}

func TestPrefilterDedupesCandidates(t *testing.T) {
	p := NewPrefilter()
	prefix := wimhash.Sum([]byte("prefix"))
	full := wimhash.Sum([]byte("full"))

	p.Add(prefix, full)
	p.Add(prefix, full)

	assert.Len(t, p.Candidates(prefix), 1)
	assert.Empty(t, p.Candidates(wimhash.Sum([]byte("other"))))
}
