package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := &Header{
		Flags:        FlagCompressXPR,
		CompressSize: ChunkSize,
		GUID:         [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		PartNumber:   1,
		TotalParts:   1,
		ImageCount:   2,
		OffsetTable:  ResourceHeader{Offset: 1000, Size: 500, OriginalSize: 500},
	}
	h.Reserved[0] = 0xAB

	buf := h.Encode()
	require.Len(t, buf, HeaderSize)

	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h.Flags, got.Flags)
	assert.Equal(t, h.CompressSize, got.CompressSize)
	assert.Equal(t, h.GUID, got.GUID)
	assert.Equal(t, h.ImageCount, got.ImageCount)
	assert.Equal(t, h.OffsetTable, got.OffsetTable)
	assert.Equal(t, h.Reserved, got.Reserved)
}

func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	h := &Header{}
	buf := h.Encode()
	copy(buf[0:8], "NOTWIM\x00\x00")

	_, err := DecodeHeader(buf)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeHeaderRejectsAmbiguousCompression(t *testing.T) {
	h := &Header{Flags: FlagCompressXPR | FlagCompressLZX}
	buf := h.Encode()

	_, err := DecodeHeader(buf)
	assert.ErrorIs(t, err, ErrAmbiguousCompression)
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	_, err := DecodeHeader(make([]byte, 10))
	assert.Error(t, err)
}
