// Package metadata builds and parses an image metadata resource
// (spec.md §3 "Image metadata resource", §4.6 C6): the serialized
// directory tree of one image, stored as a security block followed by
// the directory entries, one null-terminated run of children per
// directory, laid out breadth-first.
//
// It is the generalization of the teacher's section package's
// offset-indexed record layout (numeric_index_entry.go) to a tree rather
// than a flat array: every directory's children are a contiguous,
// null-terminated run referenced by a "subdir offset" in the parent
// entry, resolved here with a two-pass build (encode, then patch
// forward-referenced offsets) and a queue-driven parse.
package metadata
