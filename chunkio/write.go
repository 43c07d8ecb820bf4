package chunkio

import (
	"fmt"
	"io"

	"github.com/wimpack/wim/codec"
	"github.com/wimpack/wim/internal/bufpool"
	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
)

// Threshold configures the abort-if-unprofitable heuristic of
// spec.md §4.4 step 4: after the first total_chunks/N chunks have been
// emitted, if the resource already spans at least SizeChunks chunks and
// the observed gain is below Ratio, the resource is rewritten as a raw
// copy instead.
type Threshold struct {
	SizeChunks int
	N          int
	Ratio      float64
}

func (t *Threshold) checkpoint(totalChunks int) int {
	if t == nil || t.N <= 0 {
		return -1
	}

	return totalChunks / t.N
}

// WriteOptions configures WriteResource.
type WriteOptions struct {
	Kind             codec.Kind
	Workers          int
	Threshold        *Threshold
	TakeHash         bool // compute the running SHA-1 of the uncompressed input
	UncompressedSize int64
}

// WriteResult reports what was actually written: its on-disk size, its
// uncompressed size, whether it ended up compressed, and (if requested)
// the content hash.
type WriteResult struct {
	OnDiskSize       uint64
	UncompressedSize uint64
	Compressed       bool
	Hash             wimhash.Hash
}

// WriteResource reads exactly opts.UncompressedSize bytes from r, writes
// the chunked-resource representation to w starting at the writer's
// current position, and returns the resulting sizes and hash. w and r
// must both support Seek: w so the chunk-offset table can be
// back-patched and so an unprofitable compression pass can be rewound
// into a raw copy, r so the same rewind can re-read the original bytes.
func WriteResource(w io.WriteSeeker, r io.ReadSeeker, opts WriteOptions) (WriteResult, error) {
	size := opts.UncompressedSize
	if opts.Kind == codec.KindNone || size == 0 {
		return writeRawCopy(w, r, size, opts.TakeHash)
	}

	start, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return WriteResult{}, err
	}
	rStart, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return WriteResult{}, err
	}

	res, aborted, err := writeCompressed(w, r, start, size, opts)
	if err != nil {
		return WriteResult{}, err
	}
	if aborted || res.OnDiskSize >= res.UncompressedSize {
		if _, err := w.Seek(start, io.SeekStart); err != nil {
			return WriteResult{}, err
		}
		if _, err := r.Seek(rStart, io.SeekStart); err != nil {
			return WriteResult{}, err
		}

		return writeRawCopy(w, r, size, opts.TakeHash)
	}

	return res, nil
}

func writeRawCopy(w io.Writer, r io.Reader, size int64, takeHash bool) (WriteResult, error) {
	var h *wimhash.Streaming
	var dst io.Writer = w
	if takeHash {
		h = wimhash.NewStreaming()
		dst = io.MultiWriter(w, streamingHashWriter{h})
	}

	n, err := io.CopyN(dst, r, size)
	if err != nil && err != io.EOF {
		return WriteResult{}, fmt.Errorf("chunkio: raw copy: %w", err)
	}

	res := WriteResult{OnDiskSize: uint64(n), UncompressedSize: uint64(n)}
	if h != nil {
		res.Hash = h.Sum()
	}

	return res, nil
}

type streamingHashWriter struct{ h *wimhash.Streaming }

func (s streamingHashWriter) Write(p []byte) (int, error) { return s.h.Write(p) }

// writeCompressed runs the compression path of spec.md §4.4. aborted
// reports that the threshold heuristic fired and the caller must rewind
// and fall back to a raw copy; in that case the partial bytes already
// written past start are meaningless and must be discarded by the
// caller's Seek.
func writeCompressed(w io.WriteSeeker, r io.Reader, start int64, size int64, opts WriteOptions) (WriteResult, bool, error) {
	numChunks := int((size + ChunkSize - 1) / ChunkSize)

	offsetWidth := 4
	if size > fourGiB {
		offsetWidth = 8
	}
	tableSize := 0
	if numChunks > 1 {
		tableSize = (numChunks - 1) * offsetWidth
	}

	if _, err := w.Seek(start+int64(tableSize), io.SeekStart); err != nil {
		return WriteResult{}, false, err
	}

	pool, err := codec.NewPool(opts.Kind, opts.Workers)
	if err != nil {
		return WriteResult{}, false, err
	}

	var h *wimhash.Streaming
	if opts.TakeHash {
		h = wimhash.NewStreaming()
	}

	offsets := make([]uint64, 0, numChunks-1)
	workers := opts.Workers
	if workers <= 0 {
		workers = codec.DefaultWorkers
	}
	batch := 16 * workers

	var emitted, processed, uncompressedProcessed int64
	checkpoint := opts.Threshold.checkpoint(numChunks)
	aborted := false

	submitted := 0
	drained := 0
	var readErr error

	submitNext := func() bool {
		if submitted >= numChunks || readErr != nil {
			return false
		}

		chunkLen := ChunkSize
		if remaining := size - int64(submitted)*ChunkSize; remaining < ChunkSize {
			chunkLen = int(remaining)
		}

		buf := bufpool.GetChunk(chunkLen)
		if _, err := io.ReadFull(r, *buf); err != nil {
			readErr = fmt.Errorf("chunkio: read chunk %d: %w", submitted, err)
			bufpool.PutChunk(buf)
			return false
		}
		if h != nil {
			_, _ = h.Write(*buf)
		}

		idx := submitted
		data := *buf
		pool.Submit(idx, func(c codec.Codec) ([]byte, error) {
			scratch := bufpool.Get()
			out, err := c.Compress((*scratch)[:0], data)

			var result []byte
			if err != nil || len(out) >= chunkLen {
				// incompressible, or the codec didn't shrink it: store raw.
				result = append([]byte(nil), data...)
			} else {
				result = append([]byte(nil), out...)
			}

			bufpool.Put(scratch)
			bufpool.PutChunk(&data)

			return result, nil
		})
		submitted++

		return true
	}

	for drained < numChunks && !aborted {
		for submitted < drained+batch && submitNext() {
		}
		if readErr != nil {
			_ = pool.Close()
			return WriteResult{}, false, readErr
		}

		res, ok := pool.Next()
		if !ok {
			break
		}
		if res.Err != nil {
			_ = pool.Close()
			return WriteResult{}, false, fmt.Errorf("chunkio: compress chunk %d: %w", res.Index, res.Err)
		}

		if drained > 0 {
			offsets = append(offsets, uint64(emitted))
		}
		if _, err := w.Write(res.Data); err != nil {
			_ = pool.Close()
			return WriteResult{}, false, err
		}

		emitted += int64(len(res.Data))
		chunkLen := ChunkSize
		if remaining := size - int64(drained)*ChunkSize; remaining < ChunkSize {
			chunkLen = int(remaining)
		}
		uncompressedProcessed += int64(chunkLen)
		drained++
		processed++

		if checkpoint > 0 && int(processed) == checkpoint && numChunks >= thresholdSizeChunks(opts.Threshold) {
			gain := 1 - float64(emitted)/float64(uncompressedProcessed)
			if gain < opts.Threshold.Ratio {
				aborted = true
			}
		}
	}

	if err := pool.Close(); err != nil && !aborted {
		return WriteResult{}, false, err
	}

	if aborted {
		return WriteResult{}, true, nil
	}

	tableBuf := make([]byte, tableSize)
	for i, off := range offsets {
		if offsetWidth == 4 {
			layout.LE.PutUint32(tableBuf[i*4:i*4+4], uint32(off))
		} else {
			layout.LE.PutUint64(tableBuf[i*8:i*8+8], off)
		}
	}
	if tableSize > 0 {
		if _, err := w.Seek(start, io.SeekStart); err != nil {
			return WriteResult{}, false, err
		}
		if _, err := w.Write(tableBuf); err != nil {
			return WriteResult{}, false, err
		}
		if _, err := w.Seek(start+int64(tableSize)+emitted, io.SeekStart); err != nil {
			return WriteResult{}, false, err
		}
	}

	res := WriteResult{
		OnDiskSize:       uint64(tableSize) + uint64(emitted),
		UncompressedSize: uint64(size),
		Compressed:       true,
	}
	if h != nil {
		res.Hash = h.Sum()
	}

	return res, false, nil
}

func thresholdSizeChunks(t *Threshold) int {
	if t == nil {
		return 0
	}

	return t.SizeChunks
}
