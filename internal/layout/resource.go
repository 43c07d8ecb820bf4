package layout

// Resource flag bits, packed into the top byte of a resource header's
// on-disk size field.
const (
	ResFlagFree       uint8 = 1 << 0
	ResFlagMetadata   uint8 = 1 << 1
	ResFlagCompressed uint8 = 1 << 2
	ResFlagSpanned    uint8 = 1 << 3
)

// ResourceHeader describes a contiguous region of the archive: its on-disk
// size and flags packed into one 8-byte field, its uncompressed size, and
// its byte offset. Size and Flags are separate fields here; encodeInto
// packs them into the one on-disk field and decodeResourceHeader splits
// them again, since the two are not independently addressable on disk.
type ResourceHeader struct {
	Size           uint64 // on-disk size in bytes; low 56 bits of the packed field
	Flags          uint8  // free/metadata/compressed/spanned; top byte of the packed field
	OriginalSize   uint64 // uncompressed size in bytes
	Offset         uint64 // byte offset of the resource from the start of the archive
}

// IsMetadata reports whether the resource is an image metadata resource.
func (r ResourceHeader) IsMetadata() bool { return r.Flags&ResFlagMetadata != 0 }

// IsCompressed reports whether the resource is chunk-compressed.
func (r ResourceHeader) IsCompressed() bool { return r.Flags&ResFlagCompressed != 0 }

// IsFree reports whether the resource is marked free (unreferenced).
func (r ResourceHeader) IsFree() bool { return r.Flags&ResFlagFree != 0 }

// IsSpanned reports whether the resource is spanned across split-set units.
func (r ResourceHeader) IsSpanned() bool { return r.Flags&ResFlagSpanned != 0 }

// packedSizeAndFlags combines Size (low 56 bits) and Flags (top byte) into
// a single little-endian uint64, per spec.md §4.1: "the 56-bit size in a
// resource header is carried in the low 7 bytes of an 8-byte field; the
// top byte holds the flag byte."
func packedSizeAndFlags(size uint64, flags uint8) uint64 {
	return (size & 0x00FFFFFFFFFFFFFF) | (uint64(flags) << 56)
}

func unpackSizeAndFlags(packed uint64) (size uint64, flags uint8) {
	return packed & 0x00FFFFFFFFFFFFFF, uint8(packed >> 56)
}

// encodeInto writes the 24-byte on-disk form of a resource header to dst.
// Layout: packed size+flags (8), original size (8), offset (8).
func (r ResourceHeader) encodeInto(dst []byte) {
	LE.PutUint64(dst[0:8], packedSizeAndFlags(r.Size, r.Flags))
	LE.PutUint64(dst[8:16], r.OriginalSize)
	LE.PutUint64(dst[16:24], r.Offset)
}

// Encode returns the 24-byte on-disk form of a resource header.
func (r ResourceHeader) Encode() []byte {
	buf := make([]byte, 24)
	r.encodeInto(buf)
	return buf
}

func decodeResourceHeader(src []byte) ResourceHeader {
	size, flags := unpackSizeAndFlags(LE.Uint64(src[0:8]))
	return ResourceHeader{
		Size:         size,
		Flags:        flags,
		OriginalSize: LE.Uint64(src[8:16]),
		Offset:       LE.Uint64(src[16:24]),
	}
}

// DecodeResourceHeader parses a 24-byte buffer into a ResourceHeader.
func DecodeResourceHeader(src []byte) ResourceHeader {
	return decodeResourceHeader(src)
}

// ResourceHeaderSize is the fixed on-disk size of a ResourceHeader.
const ResourceHeaderSize = 24
