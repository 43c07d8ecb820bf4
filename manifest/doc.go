// Package manifest builds and rewrites the archive's XML manifest
// (spec.md §3 "XML manifest", §4.7 C7): a UTF-16, BOM-prefixed XML
// document describing every image in the archive.
//
// XML structure is handled with encoding/xml, as the teacher does for
// no format in particular (mebo has no text-format concern at all) —
// grounded instead on the pack's distr1-distri use of
// golang.org/x/text/encoding/unicode for the UTF-16 transcoding
// encoding/xml alone cannot do.
package manifest
