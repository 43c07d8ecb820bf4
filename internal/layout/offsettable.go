package layout

// OffsetEntrySize is the fixed on-disk size of an OffsetTableEntry.
const OffsetEntrySize = ResourceHeaderSize + 2 + 4 + 20 // 50

// OffsetTableEntry is one row of the archive's content-addressed offset
// table: a resource header, its split-set part number, its reference
// count, and the SHA-1 that keys it.
type OffsetTableEntry struct {
	Header     ResourceHeader
	PartNumber uint16
	RefCount   uint32
	Hash       [20]byte
}

// Encode returns the 50-byte on-disk form of the entry.
func (e OffsetTableEntry) Encode() []byte {
	buf := make([]byte, OffsetEntrySize)
	e.Header.encodeInto(buf[0:24])
	LE.PutUint16(buf[24:26], e.PartNumber)
	LE.PutUint32(buf[26:30], e.RefCount)
	copy(buf[30:50], e.Hash[:])

	return buf
}

// DecodeOffsetTableEntry parses a 50-byte buffer into an OffsetTableEntry.
func DecodeOffsetTableEntry(src []byte) OffsetTableEntry {
	return OffsetTableEntry{
		Header:     decodeResourceHeader(src[0:24]),
		PartNumber: LE.Uint16(src[24:26]),
		RefCount:   LE.Uint32(src[26:30]),
		Hash:       [20]byte(src[30:50]),
	}
}
