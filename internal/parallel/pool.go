// Package parallel provides the worker pool behind parallel action
// grounding. Schema instantiation is embarrassingly parallel but the
// per-schema work is uneven, so a shared pool with a buffered task
// queue keeps all cores busy without spawning a goroutine per schema.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrPoolShutdown is returned when submitting to a pool after Shutdown.
var ErrPoolShutdown = errors.New("worker pool is shut down")

// WorkerPool runs submitted tasks on a fixed set of goroutines. The
// task queue holds two tasks per worker, so Submit applies backpressure
// once the workers fall behind.
type WorkerPool struct {
	workers int
	tasks   chan func()
	quit    chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once
}

// NewWorkerPool starts a pool with the given number of workers.
// workers <= 0 means one worker per CPU core.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &WorkerPool{
		workers: workers,
		tasks:   make(chan func(), workers*2),
		quit:    make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

// run drains the task queue until the pool shuts down. Tasks still
// queued at shutdown are not guaranteed to run.
func (p *WorkerPool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			task()
		}
	}
}

// Workers reports the pool's worker count.
func (p *WorkerPool) Workers() int { return p.workers }

// Submit queues a task, blocking while the queue is full. The shutdown
// check comes first so a stopped pool never accepts a task into a queue
// nobody will drain.
func (p *WorkerPool) Submit(ctx context.Context, task func()) error {
	select {
	case <-p.quit:
		return ErrPoolShutdown
	default:
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrPoolShutdown
	}
}

// Batch runs fn(i) for every i in [0, n) across the pool and waits for
// all of them. fn records its own results; Batch reports only
// submission failures. Tasks queued before a failed submission still
// run to completion before Batch returns.
func (p *WorkerPool) Batch(ctx context.Context, n int, fn func(i int)) error {
	var wg sync.WaitGroup
	var err error
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		if serr := p.Submit(ctx, func() {
			defer wg.Done()
			fn(i)
		}); serr != nil {
			wg.Done()
			err = serr
			break
		}
	}
	wg.Wait()
	return err
}

// Shutdown stops the workers after the tasks they already started
// finish and waits for them to exit. Safe to call more than once.
func (p *WorkerPool) Shutdown() {
	p.stop.Do(func() {
		close(p.quit)
		p.wg.Wait()
	})
}
