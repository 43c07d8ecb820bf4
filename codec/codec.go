// Package codec provides the pluggable chunk compressors/decompressors
// the archive engine invokes as back-ends (spec.md §1: "the concrete
// compression/decompression algorithms themselves ... are invoked as
// pluggable codec back-ends"), and the worker pool that runs them over
// many chunks concurrently (spec.md §4.4, C4).
//
// Kind XPress and Kind LZX are not bit-exact implementations of
// Microsoft's XPRESS Huffman and LZX algorithms — those are out of
// scope per spec.md §1 — but real, pluggable Codec back-ends standing in
// for them, the same way the teacher's compress package plugs in real
// zstd/s2/lz4 codecs behind one Codec interface.
package codec

import "fmt"

// Kind identifies a chunk compression algorithm. It mirrors the two
// compression flags a header may carry, plus "none" for the copy codec.
type Kind uint8

const (
	KindNone Kind = iota
	KindXpress
	KindLZX
)

// String renders the Kind the way the archive's --compress flag spells it.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindXpress:
		return "xpress"
	case KindLZX:
		return "lzx"
	default:
		return "unknown"
	}
}

// ParseKind parses the --compress flag's value.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "none", "":
		return KindNone, nil
	case "xpress":
		return KindXpress, nil
	case "lzx":
		return KindLZX, nil
	default:
		return 0, fmt.Errorf("codec: unknown compression kind %q", s)
	}
}

// Compressor compresses one chunk's worth of data at a time.
//
// A Pool gives each worker its own instance from New, so one instance
// is never called from two workers at once; state shared between
// instances of a Kind (such as a package-level sync.Pool) must still be
// safe for concurrent use.
type Compressor interface {
	// Compress compresses src into dst[:n] and returns the result
	// slice. dst has spare capacity for compression overhead; an
	// implementation may return a differently-backed slice instead.
	Compress(dst, src []byte) ([]byte, error)
}

// Decompressor decompresses one chunk's worth of data at a time. The
// caller always knows the exact expected output size in advance — every
// chunk is either 32768 bytes (ChunkSize) or, for the final chunk of a
// resource, the residual uncompressed length — so Decompress takes it
// rather than guessing or growing.
type Decompressor interface {
	Decompress(dst []byte, src []byte, uncompressedSize int) ([]byte, error)
}

// Codec combines both directions of one compression algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// New returns a fresh Codec instance for kind. Each call returns an
// independent instance suitable for handing to one worker, since some
// back-ends (LZX's pooled lz4.Compressor) hold per-call scratch state.
func New(kind Kind) (Codec, error) {
	switch kind {
	case KindNone:
		return copyCodec{}, nil
	case KindXpress:
		return newXpressCodec(), nil
	case KindLZX:
		return newLZXCodec(), nil
	default:
		return nil, fmt.Errorf("codec: unsupported kind %v", kind)
	}
}
