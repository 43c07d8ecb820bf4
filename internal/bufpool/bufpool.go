// Package bufpool pools the fixed-size scratch buffers the codec pool's
// workers compress and decompress chunks into.
//
// It is the teacher's internal/pool.ByteBufferPool narrowed to one fixed
// size: spec.md §4.4 gives each worker "one scratch output buffer of
// 32768 + 6144 bytes" — 6144 bytes of compression headroom over the
// largest possible uncompressed chunk, since a pathological input can
// make a chunk compressor's output exceed its input.
package bufpool

import "sync"

// ScratchSize is the size of a worker's scratch output buffer: the
// uncompressed chunk size plus headroom for compression overhead.
const ScratchSize = 32768 + 6144

var scratchPool = sync.Pool{
	New: func() any {
		buf := make([]byte, ScratchSize)
		return &buf
	},
}

// Get retrieves a ScratchSize-byte buffer from the pool.
func Get() *[]byte {
	return scratchPool.Get().(*[]byte)
}

// Put returns a buffer to the pool. Buffers not originally obtained from
// Get, or grown past ScratchSize, are discarded rather than pooled.
func Put(buf *[]byte) {
	if buf == nil || cap(*buf) != ScratchSize {
		return
	}
	*buf = (*buf)[:ScratchSize]
	scratchPool.Put(buf)
}

// chunkBufPool pools plain byte slices sized to one uncompressed chunk,
// used for input staging (the immutable per-chunk byte buffers workers
// read from).
var chunkBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 32768)
		return &buf
	},
}

// GetChunk retrieves a byte slice with length n and at least 32768 bytes
// of capacity from the chunk-input pool.
func GetChunk(n int) *[]byte {
	p := chunkBufPool.Get().(*[]byte)
	if cap(*p) < n {
		*p = make([]byte, n)
	} else {
		*p = (*p)[:n]
	}

	return p
}

// PutChunk returns a chunk-input buffer to the pool.
func PutChunk(buf *[]byte) {
	if buf == nil {
		return
	}
	*buf = (*buf)[:0]
	chunkBufPool.Put(buf)
}
