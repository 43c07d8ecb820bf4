package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirEntryRoundTrip(t *testing.T) {
	d := &DirEntry{
		Attributes:   AttrDirectory,
		SecurityID:   NoSecurityID,
		SubdirOffset: 128,
		FileName:     "hello world",
	}

	buf := d.Encode()
	assert.Equal(t, 0, len(buf)%8, "entry must be padded to an 8-byte boundary")

	got, nStreams, consumed, err := DecodeDirEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, nStreams)
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, d.FileName, got.FileName)
	assert.Equal(t, d.SubdirOffset, got.SubdirOffset)
	assert.True(t, got.IsDirectory())
	assert.False(t, got.HasSecurityDescriptor())
}

func TestDirEntryUnicodeName(t *testing.T) {
	d := &DirEntry{FileName: "日本語.txt"}
	buf := d.Encode()

	got, _, _, err := DecodeDirEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, d.FileName, got.FileName)
}

func TestDecodeDirEntryEndOfDirectoryMarker(t *testing.T) {
	marker := make([]byte, 8)
	got, nStreams, consumed, err := DecodeDirEntry(marker)
	require.NoError(t, err)
	assert.Equal(t, DirEntry{}, got)
	assert.Equal(t, 0, nStreams)
	assert.Equal(t, 8, consumed)
}

func TestStreamEntryRoundTrip(t *testing.T) {
	s := StreamEntry{Name: ":data", Hash: [20]byte{1, 2, 3}}
	buf := s.Encode()

	got, consumed, err := DecodeStreamEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, s.Name, got.Name)
	assert.Equal(t, s.Hash, got.Hash)
}
