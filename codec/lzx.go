package codec

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lzxCodec is the Kind LZX back-end: a pooled LZ4 block compressor from
// pierrec/lz4 standing in for Microsoft's LZX algorithm (out of scope
// per spec.md §1). Pooling the lz4.Compressor mirrors the teacher's
// LZ4Compressor exactly, since lz4.Compressor carries reusable internal
// match-finding state.
type lzxCodec struct{}

var _ Codec = lzxCodec{}

func newLZXCodec() lzxCodec { return lzxCodec{} }

var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

func (lzxCodec) Compress(dst, src []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(src))
	if cap(dst) < bound {
		dst = make([]byte, bound)
	} else {
		dst = dst[:bound]
	}

	c := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(c)

	n, err := c.CompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("codec: lzx compress: %w", err)
	}
	if n == 0 && len(src) > 0 {
		// lz4 reports n==0 when the block is incompressible; report
		// it as errIncompressible, on which chunkio stores the chunk
		// raw.
		return nil, errIncompressible
	}

	return dst[:n], nil
}

// errIncompressible signals that the codec declined to produce a
// compressed form smaller than the input; chunkio treats this exactly
// like "compressed size >= chunk size" and stores the chunk raw.
var errIncompressible = errors.New("codec: block did not compress")

func (lzxCodec) Decompress(dst, src []byte, uncompressedSize int) ([]byte, error) {
	if cap(dst) < uncompressedSize {
		dst = make([]byte, uncompressedSize)
	} else {
		dst = dst[:uncompressedSize]
	}

	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("codec: lzx decompress: %w", err)
	}
	if n != uncompressedSize {
		return nil, fmt.Errorf("codec: lzx decompress: got %d bytes, want %d", n, uncompressedSize)
	}

	return dst[:n], nil
}
