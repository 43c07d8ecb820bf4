package integrity

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProducesOneDigestPerWindow(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, WindowSize+100)
	r := bytes.NewReader(data)

	table, err := Build(r, 0, int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, table.Digests, 2)
}

func TestVerifyDetectsMismatch(t *testing.T) {
	data := bytes.Repeat([]byte{0x01}, 1000)
	r := bytes.NewReader(data)

	table, err := Build(r, 0, int64(len(data)))
	require.NoError(t, err)

	corrupted := append([]byte(nil), data...)
	corrupted[500] ^= 0xFF
	mismatches, err := Verify(bytes.NewReader(corrupted), 0, int64(len(corrupted)), table)
	require.NoError(t, err)
	assert.Len(t, mismatches, 1)
}

func TestVerifyCleanArchive(t *testing.T) {
	data := bytes.Repeat([]byte{0x01}, 1000)
	r := bytes.NewReader(data)

	table, err := Build(r, 0, int64(len(data)))
	require.NoError(t, err)

	mismatches, err := Verify(r, 0, int64(len(data)), table)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}
