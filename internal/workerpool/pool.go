// Package workerpool runs short-lived tasks concurrently under a fixed bound.
//
// Submit never blocks: every task gets its own goroutine immediately and then
// waits on a weighted semaphore for an execution slot, so Submit may be
// called while holding a lock that a running task also takes.
package workerpool

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultLimit is used when a non-positive limit is requested.
const DefaultLimit = 256

// Task is a unit of work. ctx is cancelled when the pool closes.
type Task func(ctx context.Context)

// Pool bounds how many submitted tasks execute at the same time.
type Pool struct {
	logger *slog.Logger
	sem    *semaphore.Weighted
	limit  int

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	running atomic.Int64
	waiting atomic.Int64
}

// New creates a pool allowing at most limit tasks to run at once.
func New(logger *slog.Logger, limit int) *Pool {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		logger: logger,
		sem:    semaphore.NewWeighted(int64(limit)),
		limit:  limit,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit schedules task. It returns false if the pool is already closed.
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	p.wg.Add(1)
	p.waiting.Add(1)
	go func() {
		defer p.wg.Done()
		err := p.sem.Acquire(p.ctx, 1)
		p.waiting.Add(-1)
		if err == nil {
			defer p.sem.Release(1)
		}
		// A task accepted before Close still runs, with its context already
		// cancelled, so the submitter always sees the outcome.
		p.run(task)
	}()
	return true
}

func (p *Pool) run(task Task) {
	p.running.Add(1)
	defer p.running.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker task panicked.", "panic", r)
		}
	}()
	task(p.ctx)
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Waiting returns the number of submitted tasks still waiting for a slot.
func (p *Pool) Waiting() int {
	return int(p.waiting.Load())
}

// Limit returns the configured concurrency bound.
func (p *Pool) Limit() int {
	return p.limit
}

// Close cancels the pool context, refuses new tasks and waits for every
// submitted task to return.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	p.logger.Debug("Worker pool closed.")
}
