package chunkio

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wimpack/wim/codec"
	"github.com/wimpack/wim/internal/wimhash"
)

// seeker wraps a bytes.Buffer's backing slice in something that
// supports both Seek and Write/Read, the way the archive's own
// *os.File does for WriteResource/ReadResource.
type seeker struct {
	buf []byte
	pos int64
}

func (s *seeker) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	n := copy(s.buf[s.pos:end], p)
	s.pos = end

	return n, nil
}

func (s *seeker) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.buf)) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[s.pos:])
	s.pos += int64(n)

	return n, nil
}

func (s *seeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		s.pos = offset
	case 1:
		s.pos += offset
	case 2:
		s.pos = int64(len(s.buf)) + offset
	}

	return s.pos, nil
}

func (s *seeker) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(s.buf)) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func roundTrip(t *testing.T, kind codec.Kind, data []byte) {
	t.Helper()

	src := &seeker{buf: append([]byte(nil), data...)}
	dst := &seeker{}

	res, err := WriteResource(dst, src, WriteOptions{
		Kind:             kind,
		Workers:          2,
		TakeHash:         true,
		UncompressedSize: int64(len(data)),
	})
	require.NoError(t, err)
	assert.EqualValues(t, len(data), res.UncompressedSize)
	assert.Equal(t, wimhash.Sum(data), res.Hash)

	var out bytes.Buffer
	hash, err := ReadResource(&out, dst, 0, ReadOptions{
		Kind:             kind,
		Workers:          2,
		OnDiskSize:       res.OnDiskSize,
		UncompressedSize: res.UncompressedSize,
		TakeHash:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, data, out.Bytes())
	assert.Equal(t, wimhash.Sum(data), hash)
}

func TestRoundTripEmpty(t *testing.T) {
	roundTrip(t, codec.KindXpress, nil)
}

func TestRoundTripSingleChunkExact(t *testing.T) {
	// spec.md §8: "File exactly 32768 bytes: single chunk, no
	// chunk-offset table written."
	data := bytes.Repeat([]byte{0xAB}, ChunkSize)
	roundTrip(t, codec.KindXpress, data)
}

func TestRoundTripTwoChunks(t *testing.T) {
	// spec.md §8: "File 32769 bytes: two chunks, chunk-offset table has
	// one entry."
	data := make([]byte, ChunkSize+1)
	for i := range data {
		data[i] = byte(i)
	}
	roundTrip(t, codec.KindXpress, data)
}

func TestRoundTripMultiChunkLZX(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 4000)
	roundTrip(t, codec.KindLZX, data)
}

func TestRoundTripCopyCodec(t *testing.T) {
	data := bytes.Repeat([]byte{0x11, 0x22, 0x33}, 20000)
	roundTrip(t, codec.KindNone, data)
}

func TestWriteResourceRewritesUncompressedWhenNotSmaller(t *testing.T) {
	// Near-incompressible random-looking content: the compressed form
	// can end up no smaller than the input, in which case spec.md §4.3
	// requires the resource be rewritten uncompressed with no
	// chunk-offset table (on-disk size == uncompressed size).
	data := make([]byte, ChunkSize)
	rand.New(rand.NewSource(1)).Read(data)

	src := &seeker{buf: append([]byte(nil), data...)}
	dst := &seeker{}

	res, err := WriteResource(dst, src, WriteOptions{
		Kind:             codec.KindLZX,
		Workers:          2,
		UncompressedSize: int64(len(data)),
	})
	require.NoError(t, err)
	if !res.Compressed {
		assert.EqualValues(t, len(data), res.OnDiskSize)
	}
}

func TestWriteResourceAbortsBelowThreshold(t *testing.T) {
	// Incompressible content spanning enough chunks to trigger the
	// abort-compression heuristic of spec.md §4.4 step 4 must fall back
	// to a raw copy, costing exactly len(data) on disk.
	data := make([]byte, ChunkSize*8)
	rand.New(rand.NewSource(7)).Read(data)

	src := &seeker{buf: append([]byte(nil), data...)}
	dst := &seeker{}

	res, err := WriteResource(dst, src, WriteOptions{
		Kind:             codec.KindLZX,
		Workers:          2,
		UncompressedSize: int64(len(data)),
		Threshold:        &Threshold{SizeChunks: 2, N: 4, Ratio: 0.9},
	})
	require.NoError(t, err)
	assert.False(t, res.Compressed)
	assert.EqualValues(t, len(data), res.OnDiskSize)
}
