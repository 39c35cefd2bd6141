// Package pool provides a bounded goroutine pool. The reasoning runner
// uses it to cap concurrent generation calls independently of the number
// of voting rounds; excess attempts queue instead of spawning goroutines.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrPoolClosed = errors.New("pool is closed")
	ErrPoolFull   = errors.New("pool queue is full")
)

// Task is a unit of work executed by a pool worker.
type Task func(ctx context.Context)

type taskWrapper struct {
	task Task
	ctx  context.Context
	done chan struct{}
}

// Pool manages a fixed ceiling of worker goroutines with a bounded queue.
type Pool struct {
	maxWorkers  int
	taskQueue   chan taskWrapper
	workerCount atomic.Int32
	closed      atomic.Bool
	wg          sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
}

// Config configures the pool.
type Config struct {
	MaxWorkers int
	QueueSize  int
}

// DefaultConfig returns sensible defaults for generation fan-out.
func DefaultConfig() Config {
	return Config{MaxWorkers: 8, QueueSize: 64}
}

// New creates a pool. Zero or negative values fall back to defaults.
func New(cfg Config) *Pool {
	def := DefaultConfig()
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = def.MaxWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	return &Pool{
		maxWorkers: cfg.MaxWorkers,
		taskQueue:  make(chan taskWrapper, cfg.QueueSize),
	}
}

// Submit enqueues a task. The returned channel closes when the task has
// finished (or when it was dropped because its context expired before a
// worker picked it up).
func (p *Pool) Submit(ctx context.Context, task Task) (<-chan struct{}, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	p.submitted.Add(1)
	wrapper := taskWrapper{task: task, ctx: ctx, done: make(chan struct{})}

	select {
	case p.taskQueue <- wrapper:
		p.ensureWorker()
		return wrapper.done, nil
	default:
		p.rejected.Add(1)
		return nil, ErrPoolFull
	}
}

func (p *Pool) ensureWorker() {
	for {
		current := p.workerCount.Load()
		if current >= int32(p.maxWorkers) {
			return
		}
		if p.workerCount.CompareAndSwap(current, current+1) {
			p.wg.Add(1)
			go p.worker()
			return
		}
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	defer p.workerCount.Add(-1)

	for wrapper := range p.taskQueue {
		// Skip tasks whose context expired while queued; the task
		// owner observes the close and records a cancellation.
		if wrapper.ctx.Err() == nil {
			p.runTask(wrapper)
		}
		close(wrapper.done)
		p.completed.Add(1)
	}
}

func (p *Pool) runTask(wrapper taskWrapper) {
	defer func() {
		// A panicking task must not take the worker down with it.
		_ = recover()
	}()
	wrapper.task(wrapper.ctx)
}

// Close stops accepting tasks and waits for in-flight work.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.taskQueue)
	p.wg.Wait()
}

// Stats reports pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   int(p.workerCount.Load()),
		Queued:    len(p.taskQueue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Rejected:  p.rejected.Load(),
	}
}

// Stats contains pool counters.
type Stats struct {
	Workers   int   `json:"workers"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Rejected  int64 `json:"rejected"`
}
