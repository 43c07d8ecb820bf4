// Package layout encodes and decodes the fixed-layout binary records of the
// WIM container format: the archive header, resource headers, offset-table
// entries, directory entries, stream entries, the security block, and the
// integrity table.
//
// Every record is little-endian. Records with self-referential length
// fields (directory entries, the security block) are decoded by advancing
// according to the length the record itself reports, never by a fixed
// struct width — see DecodeDirEntry and DecodeSecurityBlock.
package layout

import "github.com/wimpack/wim/internal/endian"

// LE is the byte-order engine used for every record in this package. WIM is
// always little-endian; there is no byte-order negotiation.
var LE = endian.GetLittleEndianEngine()
