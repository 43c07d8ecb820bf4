package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKindRoundTrip(t *testing.T) {
	cases := []struct {
		kind Kind
		text string
	}{
		{KindNone, "none"},
		{KindXpress, "xpress"},
		{KindLZX, "lzx"},
	}

	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			assert.Equal(t, c.text, c.kind.String())

			parsed, err := ParseKind(c.text)
			require.NoError(t, err)
			assert.Equal(t, c.kind, parsed)
		})
	}
}

func TestParseKindUnknown(t *testing.T) {
	_, err := ParseKind("zstd")
	assert.Error(t, err)
}

func TestCodecRoundTrip(t *testing.T) {
	// Large, compressible payloads: every codec must restore them
	// exactly. Tiny inputs are exercised separately below, since a
	// real compressor (LZX's lz4 backend in particular) is allowed to
	// decline to compress data that doesn't shrink (spec.md §4.4:
	// "errors from the codec ... fall back to raw storage for that
	// chunk").
	payloads := [][]byte{
		bytes.Repeat([]byte{0}, 32768),
		bytes.Repeat([]byte("abcdefgh"), 4096),
	}

	for _, kind := range []Kind{KindNone, KindXpress, KindLZX} {
		c, err := New(kind)
		require.NoError(t, err)

		for _, p := range payloads {
			compressed, err := c.Compress(nil, p)
			require.NoError(t, err)

			out, err := c.Decompress(nil, compressed, len(p))
			require.NoError(t, err)
			assert.Equal(t, p, out)
		}
	}
}

func TestCopyCodecIsIdentity(t *testing.T) {
	c, err := New(KindNone)
	require.NoError(t, err)

	data := []byte("arbitrary bytes, not necessarily compressible")
	compressed, err := c.Compress(nil, data)
	require.NoError(t, err)
	assert.Equal(t, data, compressed)

	out, err := c.Decompress(nil, compressed, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestLZXDeclinesIncompressibleTinyInput(t *testing.T) {
	// A short, effectively random chunk has nothing for LZ4 to exploit;
	// the backend reports this as a "did not compress" error rather
	// than growing the output, which is exactly the signal chunkio's
	// writeCompressed step treats as "store this chunk raw."
	c, err := New(KindLZX)
	require.NoError(t, err)

	data := []byte("hello")
	_, err = c.Compress(nil, data)
	assert.Error(t, err)
}

func TestNewUnsupportedKind(t *testing.T) {
	_, err := New(Kind(255))
	assert.Error(t, err)
}
