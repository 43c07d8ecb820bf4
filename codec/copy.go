package codec

// copyCodec is the copy codec (spec.md §4.3): chunks are stored
// uncompressed and the chunk-offset table is omitted entirely. It exists
// mainly so chunkio can treat "no compression configured" uniformly with
// the real codecs, the way the teacher's NoOpCompressor lets benchmark
// and disabled-compression code paths share the Codec interface.
type copyCodec struct{}

var _ Codec = copyCodec{}

func (copyCodec) Compress(dst, src []byte) ([]byte, error) {
	return append(dst[:0], src...), nil
}

func (copyCodec) Decompress(dst, src []byte, uncompressedSize int) ([]byte, error) {
	return append(dst[:0], src...), nil
}
