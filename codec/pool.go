package codec

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the codec pool's default thread count (spec.md §4.4).
const DefaultWorkers = 2

// Task is one unit of work a Pool worker executes: given its own Codec
// instance, produce the bytes to write to the archive for this chunk.
// Implementations close over the chunk's input bytes; the pool treats
// them as opaque.
type Task func(c Codec) ([]byte, error)

// Result is one completed chunk, tagged with the index it was submitted
// under so callers can reassemble in order.
type Result struct {
	Index int
	Data  []byte
	Err   error
}

// Pool is a fixed-size worker pool that executes Tasks against
// independent chunks and reassembles results in ascending index order
// through a priority queue, per spec.md §2/§4.4/§5: "a fixed pool of T
// worker threads ... with two queues: an input queue (FIFO of pending
// chunks) and an output priority queue keyed by chunk index." Each
// worker owns one Codec instance for the life of the pool, matching "one
// initialized codec instance" per worker.
//
// Submit is non-blocking up to the input channel's buffer; Next blocks
// until the chunk matching the next expected index has arrived. Callers
// control batching (spec.md's "16·T chunks at a time" dispatch window)
// by how many chunks they Submit before draining with Next.
type Pool struct {
	tasks chan indexedTask

	mu       sync.Mutex
	cond     *sync.Cond
	pending  resultHeap
	nextWant int
	closed   bool

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	werr   error
}

type indexedTask struct {
	index int
	task  Task
}

// NewPool starts a Pool with the given codec kind and worker count.
// workers <= 0 is normalized to DefaultWorkers.
func NewPool(kind Kind, workers int) (*Pool, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	p := &Pool{
		tasks:  make(chan indexedTask, workers*16),
		group:  group,
		ctx:    gctx,
		cancel: cancel,
	}
	p.cond = sync.NewCond(&p.mu)
	heap.Init(&p.pending)

	for i := 0; i < workers; i++ {
		c, err := New(kind)
		if err != nil {
			cancel()
			return nil, err
		}

		group.Go(func() error {
			return p.runWorker(c)
		})
	}

	return p, nil
}

func (p *Pool) runWorker(c Codec) error {
	for {
		select {
		case <-p.ctx.Done():
			return p.ctx.Err()
		case it, ok := <-p.tasks:
			if !ok {
				return nil
			}

			data, err := it.task(c)
			p.deliver(Result{Index: it.index, Data: data, Err: err})
			if err != nil {
				return err
			}
		}
	}
}

func (p *Pool) deliver(r Result) {
	p.mu.Lock()
	heap.Push(&p.pending, r)
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Submit dispatches a task under the given chunk index. index must be
// unique per Pool and need not be submitted in order, but every index
// from 0 up to the highest submitted must eventually be submitted for
// Next to make progress.
func (p *Pool) Submit(index int, task Task) {
	select {
	case p.tasks <- indexedTask{index: index, task: task}:
	case <-p.ctx.Done():
	}
}

// Next blocks until the result for p's next expected index (starting at
// 0, then 1, 2, ...) has arrived, then returns it. ok is false once the
// pool has been closed and that result is not in the reassembly queue.
func (p *Pool) Next() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if len(p.pending) > 0 && p.pending[0].Index == p.nextWant {
			r := heap.Pop(&p.pending).(Result)
			p.nextWant++
			return r, true
		}
		if p.closed {
			return Result{}, false
		}
		p.cond.Wait()
	}
}

// Close stops accepting new work, waits for in-flight tasks to finish,
// and returns the first error any worker reported (spec.md §5:
// "on fatal codec error, the transaction aborts").
func (p *Pool) Close() error {
	close(p.tasks)
	err := p.group.Wait()
	p.cancel()

	p.mu.Lock()
	p.closed = true
	p.werr = err
	p.mu.Unlock()
	p.cond.Broadcast()

	if err != nil {
		return fmt.Errorf("codec: pool worker: %w", err)
	}

	return nil
}

// resultHeap is a container/heap min-heap of Results ordered by Index:
// the output priority queue of spec.md §4.4.
type resultHeap []Result

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].Index < h[j].Index }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any)         { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
