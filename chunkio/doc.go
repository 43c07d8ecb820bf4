// Package chunkio implements the chunked-resource container of
// spec.md §4.3 (C3): split an uncompressed stream into 32768-byte
// chunks, compress each independently through a codec.Pool, and write a
// chunk-offset table followed by the chunk payloads — or read the same
// layout back.
//
// It sits directly on internal/layout (record shapes), internal/wimhash
// (content hashing), and codec (the compression back-ends and worker
// pool), and hosts the abort-if-unprofitable heuristic and the
// store-raw-if-it-didn't-help fallback described in spec.md §4.3/§4.4.
package chunkio

import "github.com/wimpack/wim/internal/layout"

// ChunkSize is the uncompressed size of every chunk but the last.
const ChunkSize = layout.ChunkSize

// fourGiB is the uncompressed-resource-size boundary above which the
// chunk-offset table uses 64-bit offsets instead of 32-bit ones.
const fourGiB = 1 << 32
