package layout

import "fmt"

// SecurityBlock is the security descriptor table at the start of a
// metadata resource: a count of opaque descriptor blobs, referenced from
// directory entries by index (DirEntry.SecurityID).
type SecurityBlock struct {
	Descriptors [][]byte
}

// Encode serializes the security block: length (4), count (4), count
// little-endian 64-bit sizes, then the descriptor blobs back to back,
// padded to an 8-byte boundary.
func (s SecurityBlock) Encode() []byte {
	sizesLen := 8 * len(s.Descriptors)
	blobLen := 0
	for _, d := range s.Descriptors {
		blobLen += len(d)
	}

	total := padTo8(8 + sizesLen + blobLen)
	buf := make([]byte, total)
	LE.PutUint32(buf[4:8], uint32(len(s.Descriptors)))

	off := 8
	for _, d := range s.Descriptors {
		LE.PutUint64(buf[off:off+8], uint64(len(d)))
		off += 8
	}
	for _, d := range s.Descriptors {
		copy(buf[off:], d)
		off += len(d)
	}

	LE.PutUint32(buf[0:4], uint32(total))

	return buf
}

// DecodeSecurityBlock decodes a security block from the start of buf,
// returning the block and the number of bytes it occupies (its declared
// length, padded per Encode).
func DecodeSecurityBlock(buf []byte) (SecurityBlock, int, error) {
	if len(buf) < 8 {
		return SecurityBlock{}, 0, ErrTruncatedEntry
	}

	length := LE.Uint32(buf[0:4])
	count := LE.Uint32(buf[4:8])
	if uint64(len(buf)) < uint64(length) {
		return SecurityBlock{}, 0, fmt.Errorf("layout: security block declares length %d beyond buffer of %d", length, len(buf))
	}

	sizesOff := 8
	sizesEnd := sizesOff + 8*int(count)
	if sizesEnd > len(buf) {
		return SecurityBlock{}, 0, ErrTruncatedEntry
	}

	sizes := make([]uint64, count)
	for i := range sizes {
		sizes[i] = LE.Uint64(buf[sizesOff+8*i : sizesOff+8*i+8])
	}

	descs := make([][]byte, count)
	off := sizesEnd
	for i, sz := range sizes {
		end := off + int(sz)
		if end > len(buf) {
			return SecurityBlock{}, 0, ErrTruncatedEntry
		}
		descs[i] = append([]byte(nil), buf[off:end]...)
		off = end
	}

	return SecurityBlock{Descriptors: descs}, int(length), nil
}
