// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package workpool runs blocking work on a fixed set of goroutines fed by a
// bounded queue. Callers get backpressure instead of unbounded fan-out.
package workpool

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

// Pool defaults.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

var (
	// ErrSaturated is returned when the queue is full.
	ErrSaturated = errors.New("work pool saturated")

	// ErrClosed is returned after Close has been called.
	ErrClosed = errors.New("work pool closed")
)

// Func is a unit of work. It receives the submitting caller's context.
type Func func(ctx context.Context) (any, error)

type result struct {
	value any
	err   error
}

type job struct {
	ctx  context.Context
	fn   Func
	done chan result
}

// Pool is a bounded worker pool.
type Pool struct {
	jobs chan job
	g    errgroup.Group

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// New starts a pool with the given number of workers and queue capacity.
// A non-positive worker count or a negative queue size falls back to the
// defaults. A zero queue size accepts work only when a worker is idle.
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize < 0 {
		queueSize = DefaultQueueSize
	}

	p := &Pool{jobs: make(chan job, queueSize)}
	for range workers {
		p.g.Go(func() error {
			p.work()
			return nil
		})
	}
	return p
}

func (p *Pool) work() {
	for j := range p.jobs {
		// Skip work whose caller has already gone away.
		if err := j.ctx.Err(); err != nil {
			j.done <- result{err: err}
			continue
		}
		v, err := j.fn(j.ctx)
		j.done <- result{value: v, err: err}
	}
}

// Do queues fn and waits for its result.
//
// Do never blocks on a full queue: it returns ErrSaturated instead. If ctx
// ends before fn completes, Do returns the context error and the eventual
// result is dropped.
func (p *Pool) Do(ctx context.Context, fn Func) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck // context errors pass through unchanged
	}

	// Buffered so a worker never blocks on an abandoned caller.
	done := make(chan result, 1)

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, oops.Code("WORKPOOL_CLOSED").Wrap(ErrClosed)
	}
	select {
	case p.jobs <- job{ctx: ctx, fn: fn, done: done}:
		p.mu.RUnlock()
	default:
		p.mu.RUnlock()
		return nil, oops.Code("WORKPOOL_SATURATED").
			With("queue_capacity", cap(p.jobs)).
			Wrap(ErrSaturated)
	}

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err() //nolint:wrapcheck // context errors pass through unchanged
	}
}

// Run is Do with a typed result.
func Run[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := p.Do(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T) //nolint:errcheck // fn always returns T; nil interfaces yield the zero value
	return out, nil
}

// QueueDepth returns the number of queued jobs not yet picked up.
func (p *Pool) QueueDepth() int {
	return len(p.jobs)
}

// Close stops accepting work, lets queued jobs finish, and waits for the
// workers to exit. It is safe to call more than once.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})
	_ = p.g.Wait() //nolint:errcheck // workers never return errors
}
