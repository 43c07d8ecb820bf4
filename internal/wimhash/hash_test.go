package wimhash

import (
	"bytes"
	"crypto/sha1" //nolint:gosec
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	want := sha1.Sum([]byte("hello"))
	assert.Equal(t, Hash(want), Sum([]byte("hello")))
}

func TestZeroHash(t *testing.T) {
	var h Hash
	assert.True(t, h.IsZero())
	assert.False(t, Sum([]byte("x")).IsZero())
}

func TestStreaming(t *testing.T) {
	s := NewStreaming()
	_, _ = s.Write([]byte("hel"))
	_, _ = s.Write([]byte("lo"))
	assert.Equal(t, Sum([]byte("hello")), s.Sum())
}

func TestFirstChunkRewinds(t *testing.T) {
	data := bytes.Repeat([]byte("a"), 100)
	r := bytes.NewReader(data)

	h, err := FirstChunk(r, 32)
	require.NoError(t, err)
	assert.Equal(t, Sum(data[:32]), h)

	pos, err := r.Seek(0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, pos, "FirstChunk must rewind the reader")
}

func TestFirstChunkShortInput(t *testing.T) {
	r := bytes.NewReader([]byte("ab"))
	h, err := FirstChunk(r, 32)
	require.NoError(t, err)
	assert.Equal(t, Sum([]byte("ab")), h)
}

func TestFull(t *testing.T) {
	h, err := Full(bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, Sum([]byte("hello")), h)
}
