package codec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// xpressCodec is the Kind Xpress back-end: a pooled DEFLATE/Huffman
// compressor from klauspost/compress standing in for Microsoft's XPRESS
// Huffman algorithm (out of scope per spec.md §1), grounded on the
// teacher's own use of klauspost/compress as a pluggable Codec
// implementation.
type xpressCodec struct{}

var _ Codec = xpressCodec{}

func newXpressCodec() xpressCodec { return xpressCodec{} }

var flateWriterPool = sync.Pool{
	New: func() any {
		w, _ := flate.NewWriter(io.Discard, flate.DefaultCompression)
		return w
	},
}

func (xpressCodec) Compress(dst, src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := flateWriterPool.Get().(*flate.Writer)
	defer flateWriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("codec: xpress compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: xpress compress: %w", err)
	}

	return append(dst[:0], buf.Bytes()...), nil
}

func (xpressCodec) Decompress(dst, src []byte, uncompressedSize int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()

	out := dst[:0]
	if cap(out) < uncompressedSize {
		out = make([]byte, 0, uncompressedSize)
	}
	buf := bytes.NewBuffer(out)

	if _, err := io.CopyN(buf, r, int64(uncompressedSize)); err != nil {
		return nil, fmt.Errorf("codec: xpress decompress: %w", err)
	}

	return buf.Bytes(), nil
}
