package chunkio

import (
	"fmt"
	"io"

	"github.com/wimpack/wim/codec"
	"github.com/wimpack/wim/internal/bufpool"
	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
)

// ErrCorrupt is returned when a chunk fails to decompress to its
// expected size; spec.md §7 treats this as an integrity error at the
// transaction layer.
var ErrCorrupt = fmt.Errorf("chunkio: corrupt resource")

// ReadOptions configures ReadResource.
type ReadOptions struct {
	Kind             codec.Kind
	Workers          int
	OnDiskSize       uint64
	UncompressedSize uint64
	TakeHash         bool
}

// ReadResource decompresses the resource stored at byte offset base in
// src (whose on-disk form spans opts.OnDiskSize bytes) and writes the
// uncompressed content to dst, per spec.md §4.4's decompression path.
//
// If opts.OnDiskSize equals opts.UncompressedSize the resource is a raw
// copy regardless of opts.Kind (spec.md §4.4 step 1: "fast path"); src
// only needs to support reads in the byte range
// [base, base+opts.OnDiskSize).
func ReadResource(dst io.Writer, src io.ReaderAt, base int64, opts ReadOptions) (wimhash.Hash, error) {
	if opts.Kind == codec.KindNone || opts.OnDiskSize == opts.UncompressedSize {
		return readRawCopy(dst, src, base, int64(opts.OnDiskSize), opts.TakeHash)
	}

	size := int64(opts.UncompressedSize)
	numChunks := int((size + ChunkSize - 1) / ChunkSize)

	offsetWidth := 4
	if size > fourGiB {
		offsetWidth = 8
	}
	tableSize := int64(0)
	if numChunks > 1 {
		tableSize = int64(numChunks-1) * int64(offsetWidth)
	}

	offsets := make([]int64, numChunks)
	if numChunks > 1 {
		tableBuf := make([]byte, tableSize)
		if _, err := readAt(src, tableBuf, base); err != nil {
			return wimhash.Hash{}, fmt.Errorf("chunkio: read chunk-offset table: %w", err)
		}
		for i := 0; i < numChunks-1; i++ {
			if offsetWidth == 4 {
				offsets[i+1] = int64(layout.LE.Uint32(tableBuf[i*4 : i*4+4]))
			} else {
				offsets[i+1] = int64(layout.LE.Uint64(tableBuf[i*8 : i*8+8]))
			}
		}
	}

	payloadBase := base + tableSize
	onDiskPayload := int64(opts.OnDiskSize) - tableSize

	pool, err := codec.NewPool(opts.Kind, opts.Workers)
	if err != nil {
		return wimhash.Hash{}, err
	}

	for i := 0; i < numChunks; i++ {
		chunkOff := offsets[i]
		var chunkLen int64
		if i < numChunks-1 {
			chunkLen = offsets[i+1] - chunkOff
		} else {
			chunkLen = onDiskPayload - chunkOff
		}
		if chunkLen < 0 {
			_ = pool.Close()
			return wimhash.Hash{}, fmt.Errorf("%w: negative chunk length", ErrCorrupt)
		}

		expected := ChunkSize
		if i == numChunks-1 {
			expected = int(size - int64(i)*ChunkSize)
		}

		at := payloadBase + chunkOff
		n := chunkLen
		idx := i
		wantSize := expected
		pool.Submit(idx, func(c codec.Codec) ([]byte, error) {
			raw := make([]byte, n)
			if _, err := readAt(src, raw, at); err != nil {
				return nil, err
			}
			if int(n) == wantSize {
				return raw, nil
			}

			scratch := bufpool.Get()
			out, err := c.Decompress((*scratch)[:0], raw, wantSize)
			if err != nil {
				bufpool.Put(scratch)
				return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
			}

			result := append([]byte(nil), out...)
			bufpool.Put(scratch)

			return result, nil
		})
	}

	var h *wimhash.Streaming
	if opts.TakeHash {
		h = wimhash.NewStreaming()
	}

	for i := 0; i < numChunks; i++ {
		res, ok := pool.Next()
		if !ok {
			_ = pool.Close()
			return wimhash.Hash{}, fmt.Errorf("%w: pool closed early", ErrCorrupt)
		}
		if res.Err != nil {
			_ = pool.Close()
			return wimhash.Hash{}, res.Err
		}
		if _, err := dst.Write(res.Data); err != nil {
			_ = pool.Close()
			return wimhash.Hash{}, err
		}
		if h != nil {
			_, _ = h.Write(res.Data)
		}
	}

	if err := pool.Close(); err != nil {
		return wimhash.Hash{}, err
	}

	if h != nil {
		return h.Sum(), nil
	}

	return wimhash.Hash{}, nil
}

func readRawCopy(dst io.Writer, src io.ReaderAt, base, size int64, takeHash bool) (wimhash.Hash, error) {
	sr := io.NewSectionReader(src, base, size)

	var h *wimhash.Streaming
	var w io.Writer = dst
	if takeHash {
		h = wimhash.NewStreaming()
		w = io.MultiWriter(dst, streamingHashWriter{h})
	}

	if _, err := io.Copy(w, sr); err != nil {
		return wimhash.Hash{}, fmt.Errorf("chunkio: raw copy: %w", err)
	}
	if h != nil {
		return h.Sum(), nil
	}

	return wimhash.Hash{}, nil
}

func readAt(src io.ReaderAt, buf []byte, off int64) (int, error) {
	return io.ReadFull(io.NewSectionReader(src, off, int64(len(buf))), buf)
}
