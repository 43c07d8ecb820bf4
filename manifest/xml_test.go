package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := New()
	m.Upsert(Image{Index: 1, Name: "first", FileCount: 3, TotalBytes: 100})

	data, err := Encode(m, 4096)
	require.NoError(t, err)
	assert.True(t, len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE, "expected UTF-16LE BOM")

	got, err := Decode(data)
	require.NoError(t, err)
	assert.EqualValues(t, 4096, got.TotalBytes)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "first", got.Images[0].Name)
	assert.EqualValues(t, 3, got.Images[0].FileCount)
}

func TestUpsertReplacesExistingIndex(t *testing.T) {
	m := New()
	m.Upsert(Image{Index: 1, Name: "a"})
	m.Upsert(Image{Index: 1, Name: "b"})

	require.Len(t, m.Images, 1)
	assert.Equal(t, "b", m.Images[0].Name)
}

func TestRemoveRenumbersContiguous(t *testing.T) {
	m := New()
	m.Upsert(Image{Index: 1, Name: "a"})
	m.Upsert(Image{Index: 2, Name: "b"})
	m.Upsert(Image{Index: 3, Name: "c"})

	m.Remove(2)

	require.Len(t, m.Images, 2)
	assert.Equal(t, "a", m.Images[0].Name)
	assert.EqualValues(t, 1, m.Images[0].Index)
	assert.Equal(t, "c", m.Images[1].Name)
	assert.EqualValues(t, 2, m.Images[1].Index)
}

func TestImageByNameAndIndex(t *testing.T) {
	m := New()
	m.Upsert(Image{Index: 1, Name: "alpha"})

	img, ok := m.ImageByIndex(1)
	require.True(t, ok)
	assert.Equal(t, "alpha", img.Name)

	img, ok = m.ImageByName("alpha")
	require.True(t, ok)
	assert.EqualValues(t, 1, img.Index)

	_, ok = m.ImageByName("missing")
	assert.False(t, ok)
}

func TestNewNTTimeHexFormat(t *testing.T) {
	nt := NewNTTime(0x0000000100000002)
	assert.Equal(t, "0x00000001", nt.HighPart)
	assert.Equal(t, "0x00000002", nt.LowPart)
}
