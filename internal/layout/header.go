package layout

import (
	"errors"
	"fmt"
)

const (
	// HeaderSize is the fixed on-disk size of Header, in bytes.
	HeaderSize = 208

	// Magic is the literal 8-byte signature every archive begins with.
	Magic = "MSWIM\x00\x00\x00"

	// Version is the only version this package produces or accepts.
	Version = 0x00010D00

	// ChunkSize is the uncompressed size of every chunk but the last in a
	// chunked resource.
	ChunkSize = 32768

	// reservedSize is the length of the header's trailing reserved region,
	// preserved verbatim on round-trip.
	reservedSize = 60
)

// Header flag bits, packed into Header.Flags.
const (
	FlagReserved      uint32 = 1 << 0
	FlagCompressed    uint32 = 1 << 1
	FlagReadOnly      uint32 = 1 << 2
	FlagSpanned       uint32 = 1 << 3
	FlagResourceOnly  uint32 = 1 << 4
	FlagMetadataOnly  uint32 = 1 << 5
	FlagWriteInProgr  uint32 = 1 << 6
	FlagRPFix         uint32 = 1 << 7
	FlagCompressXPR   uint32 = 1 << 17
	FlagCompressLZX   uint32 = 1 << 18
)

var (
	// ErrBadMagic is returned when a header's signature does not match Magic.
	ErrBadMagic = errors.New("layout: bad header magic")
	// ErrBadHeaderLen is returned when a header reports a length other than HeaderSize.
	ErrBadHeaderLen = errors.New("layout: bad header length")
	// ErrBadVersion is returned when a header reports a version other than Version.
	ErrBadVersion = errors.New("layout: unsupported header version")
	// ErrAmbiguousCompression is returned when both compression flags are set.
	ErrAmbiguousCompression = errors.New("layout: both XPRESS and LZX compression flags set")
)

// Header is the 208-byte archive header: magic, version, flags, the
// archive GUID, part numbering, the image count, the resource headers
// for the offset table / XML data / boot metadata / the optional
// integrity table, and a 60-byte reserved tail preserved verbatim.
type Header struct {
	Flags        uint32
	CompressSize uint32 // declared uncompressed chunk size; 0 unless a compression flag is set
	GUID         [16]byte
	PartNumber   uint16
	TotalParts   uint16
	ImageCount   uint32
	OffsetTable  ResourceHeader
	XMLData      ResourceHeader
	BootMetadata ResourceHeader
	BootIndex    uint32
	Integrity    ResourceHeader
	Reserved     [reservedSize]byte
}

// IsCompressed reports whether either compression flag is set.
func (h *Header) IsCompressed() bool {
	return h.Flags&(FlagCompressXPR|FlagCompressLZX) != 0
}

// IsReadOnly reports whether the read-only flag is set.
func (h *Header) IsReadOnly() bool {
	return h.Flags&FlagReadOnly != 0
}

// IsWriteInProgress reports whether the write-in-progress flag is set.
func (h *Header) IsWriteInProgress() bool {
	return h.Flags&FlagWriteInProgr != 0
}

// Validate checks magic, header length, version, and compression-flag
// exclusivity. It does not check CompressSize against ChunkSize; callers
// that care (readers opening a compressed archive) do that explicitly.
func (h *Header) Validate(magic [8]byte, headerLen uint32, version uint32) error {
	if string(magic[:]) != Magic {
		return ErrBadMagic
	}
	if headerLen != HeaderSize {
		return fmt.Errorf("%w: got %d", ErrBadHeaderLen, headerLen)
	}
	if version != Version {
		return fmt.Errorf("%w: got %#x", ErrBadVersion, version)
	}
	if h.Flags&FlagCompressXPR != 0 && h.Flags&FlagCompressLZX != 0 {
		return ErrAmbiguousCompression
	}

	return nil
}

// Encode serializes h into a 208-byte buffer.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], Magic)
	LE.PutUint32(buf[8:12], HeaderSize)
	LE.PutUint32(buf[12:16], Version)
	LE.PutUint32(buf[16:20], h.Flags)
	LE.PutUint32(buf[20:24], h.CompressSize)
	copy(buf[24:40], h.GUID[:])
	LE.PutUint16(buf[40:42], h.PartNumber)
	LE.PutUint16(buf[42:44], h.TotalParts)
	LE.PutUint32(buf[44:48], h.ImageCount)
	h.OffsetTable.encodeInto(buf[48:72])
	h.XMLData.encodeInto(buf[72:96])
	h.BootMetadata.encodeInto(buf[96:120])
	LE.PutUint32(buf[120:124], h.BootIndex)
	h.Integrity.encodeInto(buf[124:148])
	copy(buf[148:148+reservedSize], h.Reserved[:])

	return buf
}

// DecodeHeader parses a 208-byte buffer into a Header. It validates magic,
// length, version, and compression-flag exclusivity before returning.
func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("layout: short header: %d bytes", len(buf))
	}

	h := &Header{}
	var magic [8]byte
	copy(magic[:], buf[0:8])
	headerLen := LE.Uint32(buf[8:12])
	version := LE.Uint32(buf[12:16])
	h.Flags = LE.Uint32(buf[16:20])
	h.CompressSize = LE.Uint32(buf[20:24])
	copy(h.GUID[:], buf[24:40])
	h.PartNumber = LE.Uint16(buf[40:42])
	h.TotalParts = LE.Uint16(buf[42:44])
	h.ImageCount = LE.Uint32(buf[44:48])
	h.OffsetTable = decodeResourceHeader(buf[48:72])
	h.XMLData = decodeResourceHeader(buf[72:96])
	h.BootMetadata = decodeResourceHeader(buf[96:120])
	h.BootIndex = LE.Uint32(buf[120:124])
	h.Integrity = decodeResourceHeader(buf[124:148])
	copy(h.Reserved[:], buf[148:148+reservedSize])

	if err := h.Validate(magic, headerLen, version); err != nil {
		return nil, err
	}

	return h, nil
}
