package layout

// StreamEntryFixedSize is the size of a stream entry's fixed portion,
// before its variable-length name.
const StreamEntryFixedSize = 38

// StreamEntry describes one alternate data stream attached to a
// directory entry: its length, content hash, and name.
type StreamEntry struct {
	Length uint64
	Unused uint64
	Hash   [20]byte
	Name   string
}

// Encode serializes the stream entry, including its name and padding to
// an 8-byte boundary. Length is recomputed from the payload.
func (s StreamEntry) Encode() []byte {
	nameBytes := utf16Encode(s.Name)
	nameRegion := 0
	if len(nameBytes) > 0 {
		nameRegion = len(nameBytes) + 2
	}

	total := padTo8(StreamEntryFixedSize + nameRegion)
	buf := make([]byte, total)
	LE.PutUint64(buf[0:8], uint64(total))
	LE.PutUint64(buf[8:16], s.Unused)
	copy(buf[16:36], s.Hash[:])
	LE.PutUint16(buf[36:38], uint16(len(nameBytes)))
	if nameRegion > 0 {
		copy(buf[38:], nameBytes)
	}

	return buf
}

// DecodeStreamEntry decodes a stream entry from the start of buf,
// returning the entry and the number of bytes consumed.
func DecodeStreamEntry(buf []byte) (StreamEntry, int, error) {
	if len(buf) < StreamEntryFixedSize {
		return StreamEntry{}, 0, ErrTruncatedEntry
	}

	length := LE.Uint64(buf[0:8])
	if uint64(len(buf)) < length || length < StreamEntryFixedSize {
		return StreamEntry{}, 0, ErrTruncatedEntry
	}

	s := StreamEntry{Length: length}
	s.Unused = LE.Uint64(buf[8:16])
	copy(s.Hash[:], buf[16:36])
	nameLen := LE.Uint16(buf[36:38])
	if nameLen > 0 {
		end := StreamEntryFixedSize + int(nameLen)
		if end > len(buf) {
			return StreamEntry{}, 0, ErrTruncatedEntry
		}
		s.Name = utf16Decode(buf[StreamEntryFixedSize:end])
	}

	return s, int(length), nil
}
