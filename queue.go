package web2pdf

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultQueueCapacity bounds the pending-render backlog. Submissions past
// the bound are rejected with ErrQueueFull instead of growing memory and
// latency without limit.
const DefaultQueueCapacity = 1024

// renderTask pairs one unit of render work with the channel its waiter
// listens on.
type renderTask struct {
	ctx  context.Context
	run  func(context.Context) ([]byte, error)
	done chan taskResult
}

type taskResult struct {
	pdf []byte
	err error
}

// RenderQueue serializes render work against the shared browser. A single
// worker goroutine drains tasks strictly in submission order, so exactly one
// render runs at any instant. This is a mutual-exclusion contract, not a
// concurrency limit: a headless browser is memory-heavy and unbounded
// parallel pages risk exhausting the host.
type RenderQueue struct {
	tasks  chan renderTask
	logger *slog.Logger
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRenderQueue creates a queue with the given pending capacity and starts
// its worker. Capacity <= 0 uses DefaultQueueCapacity.
func NewRenderQueue(capacity int, logger *slog.Logger) *RenderQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &RenderQueue{
		tasks:  make(chan renderTask, capacity),
		logger: logger,
	}
	q.wg.Add(1)
	go q.drain()
	return q
}

// drain processes tasks one at a time in FIFO order. A failing task rejects
// only its own waiter; draining continues with the next task.
func (q *RenderQueue) drain() {
	defer q.wg.Done()
	for t := range q.tasks {
		if err := t.ctx.Err(); err != nil {
			// The waiter already gave up; skip without running.
			t.done <- taskResult{err: err}
			continue
		}
		pdf, err := t.run(t.ctx)
		if err != nil {
			q.logger.Debug("render task failed", "error", err)
		}
		t.done <- taskResult{pdf: pdf, err: err}
	}
}

// Do submits run and blocks until it has executed in turn, returning the
// task's own outcome. Returns ErrQueueFull when the backlog is saturated and
// ErrQueueClosed after Close. Cancelling ctx abandons the wait; the worker
// skips the task when its turn comes.
func (q *RenderQueue) Do(ctx context.Context, run func(context.Context) ([]byte, error)) ([]byte, error) {
	t := renderTask{ctx: ctx, run: run, done: make(chan taskResult, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	select {
	case q.tasks <- t:
		q.mu.Unlock()
	default:
		q.mu.Unlock()
		return nil, ErrQueueFull
	}

	select {
	case res := <-t.done:
		return res.pdf, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting work and waits for the pending backlog to drain.
// Safe to call more than once.
func (q *RenderQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	q.wg.Wait()
}
