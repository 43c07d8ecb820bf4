package layout

import "errors"

// DirEntryFixedSize is the size of a directory entry's fixed portion,
// before the variable-length file name, optional short name, and padding.
const DirEntryFixedSize = 102

// Directory entry attribute bits (the subset the core core interprets;
// the rest are opaque per spec.md §1's NTFS-attribute exclusion).
const (
	AttrDirectory uint32 = 1 << 4
	AttrReparse   uint32 = 1 << 10 // 0x400
)

// Reparse tags the core interprets to choose apply-time materialization.
const (
	ReparseTagSymlink    uint32 = 0xA000000C
	ReparseTagMountPoint uint32 = 0xA0000003
)

// NoSecurityID is the sentinel SecurityID value meaning "no descriptor".
const NoSecurityID int32 = -1

// SubdirOffsetFieldOffset is the byte offset of the SubdirOffset field
// within a directory entry's fixed portion, valid regardless of the
// entry's variable-length name — callers that patch a subdir offset
// after the fact (metadata.Build) index directly into an already-encoded
// entry at entryOffset+SubdirOffsetFieldOffset.
const SubdirOffsetFieldOffset = 16

// ErrTruncatedEntry is returned when a buffer is too short to hold the
// fixed portion of a directory or stream entry.
var ErrTruncatedEntry = errors.New("layout: truncated entry")

// DirEntry is a single directory-entry record: the 102-byte fixed portion
// of spec.md §3, plus its name, optional short name, and trailing streams.
//
// Length drives advancement when walking a metadata resource: a decoded
// entry with Length == 0 is the null end-of-directory marker for its
// parent, not a real entry.
type DirEntry struct {
	Length          uint64
	Attributes      uint32
	SecurityID      int32
	SubdirOffset    uint64
	Reserved        [12]byte // preserved verbatim; unused by the core
	CreationTime    uint64   // NT ticks
	LastAccessTime  uint64   // NT ticks
	LastWriteTime   uint64   // NT ticks
	Hash            [20]byte // zero for directories and empty files
	ReparseTag      uint32
	ReparseReserved uint32
	HardLinkLow     uint32
	HardLinkHigh    uint32
	FileName        string // decoded from UTF-16LE
	ShortName       string // decoded from UTF-16LE, may be empty
	Streams         []StreamEntry
}

// IsDirectory reports whether the entry represents a directory.
func (d *DirEntry) IsDirectory() bool { return d.Attributes&AttrDirectory != 0 }

// IsReparsePoint reports whether the entry carries a reparse point.
func (d *DirEntry) IsReparsePoint() bool { return d.Attributes&AttrReparse != 0 }

// HasSecurityDescriptor reports whether the entry references a security
// descriptor in the metadata resource's security block.
func (d *DirEntry) HasSecurityDescriptor() bool { return d.SecurityID != NoSecurityID }

// HardLinkGroup packs HardLinkLow/HardLinkHigh into the 64-bit group ID
// used to recognize entries that must be materialized as hard links of
// one another on apply.
func (d *DirEntry) HardLinkGroup() uint64 {
	return uint64(d.HardLinkLow) | uint64(d.HardLinkHigh)<<32
}

// utf16Encode/utf16Decode convert between a Go string and the raw
// UTF-16LE bytes stored on disk, with no implicit NUL inside the counted
// region (spec.md §4.1).
func utf16Encode(s string) []byte {
	runes := []rune(s)
	buf := make([]byte, 0, len(runes)*2)
	for _, r := range runes {
		if r > 0xFFFF {
			r1, r2 := utf16EncodeSurrogate(r)
			buf = LE.AppendUint16(buf, r1)
			buf = LE.AppendUint16(buf, r2)
			continue
		}
		buf = LE.AppendUint16(buf, uint16(r))
	}

	return buf
}

func utf16EncodeSurrogate(r rune) (uint16, uint16) {
	r -= 0x10000
	return uint16(0xD800 + (r >> 10)), uint16(0xDC00 + (r & 0x3FF))
}

func utf16Decode(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = LE.Uint16(b[i*2 : i*2+2])
	}

	return string(utf16ToRunes(units))
}

func utf16ToRunes(units []uint16) []rune {
	out := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) && units[i+1] >= 0xDC00 && units[i+1] <= 0xDFFF {
			r := (rune(u)-0xD800)<<10 + (rune(units[i+1]) - 0xDC00) + 0x10000
			out = append(out, r)
			i++
			continue
		}
		out = append(out, rune(u))
	}

	return out
}

// padTo8 returns n rounded up to the next multiple of 8.
func padTo8(n int) int {
	return (n + 7) &^ 7
}

// Encode serializes the directory entry including name, short name, and
// trailing padding, but not its trailing stream entries (callers append
// those with StreamEntry.Encode). Length is recomputed from the payload.
func (d *DirEntry) Encode() []byte {
	nameBytes := utf16Encode(d.FileName)
	shortBytes := utf16Encode(d.ShortName)

	nameRegion := 0
	if len(nameBytes) > 0 {
		nameRegion = len(nameBytes) + 2 // +2 for the trailing NUL the reference implementation pads in
	}
	shortRegion := 0
	if len(shortBytes) > 0 {
		shortRegion = len(shortBytes) + 2
	}

	total := padTo8(DirEntryFixedSize + nameRegion + shortRegion)
	d.Length = uint64(total)

	buf := make([]byte, total)
	LE.PutUint64(buf[0:8], d.Length)
	LE.PutUint32(buf[8:12], d.Attributes)
	LE.PutUint32(buf[12:16], uint32(d.SecurityID))
	LE.PutUint64(buf[16:24], d.SubdirOffset)
	copy(buf[24:36], d.Reserved[:])
	LE.PutUint64(buf[36:44], d.CreationTime)
	LE.PutUint64(buf[44:52], d.LastAccessTime)
	LE.PutUint64(buf[52:60], d.LastWriteTime)
	copy(buf[60:80], d.Hash[:])
	LE.PutUint32(buf[80:84], d.ReparseTag)
	LE.PutUint32(buf[84:88], d.ReparseReserved)
	LE.PutUint32(buf[88:92], d.HardLinkLow)
	LE.PutUint32(buf[92:96], d.HardLinkHigh)
	LE.PutUint16(buf[96:98], uint16(len(d.Streams)))
	LE.PutUint16(buf[98:100], uint16(len(shortBytes)))
	LE.PutUint16(buf[100:102], uint16(len(nameBytes)))

	off := DirEntryFixedSize
	if nameRegion > 0 {
		copy(buf[off:], nameBytes)
		off += len(nameBytes) + 2
	}
	if shortRegion > 0 {
		copy(buf[off:], shortBytes)
	}

	return buf
}

// DecodeDirEntry decodes a directory entry from the start of buf. It
// returns the entry, the number of stream entries that immediately follow
// it in the metadata resource (the caller decodes those separately with
// DecodeStreamEntry), the number of bytes consumed by the directory entry
// itself (its Length, or 8 for the end-of-directory marker), and an error.
// A Length of 0 yields a zero-value DirEntry and a consumed count of 8:
// the end-of-directory marker.
func DecodeDirEntry(buf []byte) (entry DirEntry, streamCount int, consumed int, err error) {
	if len(buf) < 8 {
		return DirEntry{}, 0, 0, ErrTruncatedEntry
	}

	length := LE.Uint64(buf[0:8])
	if length == 0 {
		return DirEntry{}, 0, 8, nil
	}
	if uint64(len(buf)) < length || length < DirEntryFixedSize {
		return DirEntry{}, 0, 0, ErrTruncatedEntry
	}

	d := DirEntry{Length: length}
	d.Attributes = LE.Uint32(buf[8:12])
	d.SecurityID = int32(LE.Uint32(buf[12:16]))
	d.SubdirOffset = LE.Uint64(buf[16:24])
	copy(d.Reserved[:], buf[24:36])
	d.CreationTime = LE.Uint64(buf[36:44])
	d.LastAccessTime = LE.Uint64(buf[44:52])
	d.LastWriteTime = LE.Uint64(buf[52:60])
	copy(d.Hash[:], buf[60:80])
	d.ReparseTag = LE.Uint32(buf[80:84])
	d.ReparseReserved = LE.Uint32(buf[84:88])
	d.HardLinkLow = LE.Uint32(buf[88:92])
	d.HardLinkHigh = LE.Uint32(buf[92:96])
	nStreams := LE.Uint16(buf[96:98])
	shortNameLen := LE.Uint16(buf[98:100])
	fileNameLen := LE.Uint16(buf[100:102])

	off := DirEntryFixedSize
	if fileNameLen > 0 {
		end := off + int(fileNameLen)
		if end > len(buf) {
			return DirEntry{}, 0, 0, ErrTruncatedEntry
		}
		d.FileName = utf16Decode(buf[off:end])
		off = end + 2 // skip the trailing NUL
	}
	if shortNameLen > 0 {
		end := off + int(shortNameLen)
		if end > len(buf) {
			return DirEntry{}, 0, 0, ErrTruncatedEntry
		}
		d.ShortName = utf16Decode(buf[off:end])
	}

	return d, int(nStreams), int(length), nil
}
