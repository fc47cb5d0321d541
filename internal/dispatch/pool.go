// Package dispatch provides a bounded worker pool sharded by user
// identifier. Events for the same user always land on the same shard and
// therefore execute in order, while events for different users proceed in
// parallel.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Task is a unit of work executed on a shard.
type Task func()

// ErrPoolClosed indicates the pool no longer accepts tasks.
var ErrPoolClosed = errors.New("dispatch pool is closed")

// Pool executes tasks on a fixed set of shard goroutines keyed by int64.
type Pool struct {
	shards    []chan Task
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	log       *slog.Logger
}

// NewPool starts a pool with the given shard count and per-shard queue size.
func NewPool(shards, queueSize int, log *slog.Logger) *Pool {
	if shards <= 0 {
		shards = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = slog.Default()
	}

	p := &Pool{
		shards: make([]chan Task, shards),
		closed: make(chan struct{}),
		log:    log,
	}

	for i := range p.shards {
		ch := make(chan Task, queueSize)
		p.shards[i] = ch

		p.wg.Add(1)
		go p.worker(i, ch)
	}

	return p
}

func (p *Pool) worker(index int, ch chan Task) {
	defer p.wg.Done()

	for {
		select {
		case <-p.closed:
			return
		case task := <-ch:
			p.execute(index, task)
		}
	}
}

func (p *Pool) execute(index int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic in dispatch task",
				slog.Int("shard", index),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	task()
}

// Submit enqueues the task on the shard owned by key without waiting for it
// to run. It reports false when the pool is closed.
func (p *Pool) Submit(key int64, task Task) bool {
	if task == nil {
		return false
	}

	select {
	case <-p.closed:
		return false
	default:
	}

	select {
	case p.shard(key) <- task:
		return true
	case <-p.closed:
		return false
	}
}

// Run enqueues the task on the shard owned by key and waits for it to
// complete. It returns early when ctx is cancelled; an already-enqueued task
// still runs in that case to preserve per-key ordering.
func (p *Pool) Run(ctx context.Context, key int64, task Task) error {
	if task == nil {
		return nil
	}

	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		task()
	}

	select {
	case <-p.closed:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.shard(key) <- wrapped:
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closed:
		return ErrPoolClosed
	}
}

// Close stops accepting tasks and waits for in-flight tasks to finish.
// Queued but unstarted tasks are dropped.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
	p.wg.Wait()
}

func (p *Pool) shard(key int64) chan Task {
	return p.shards[uint64(key)%uint64(len(p.shards))]
}
