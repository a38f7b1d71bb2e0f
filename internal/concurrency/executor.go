// File: internal/concurrency/executor.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor dispatches tasks across a fixed set of worker goroutines fed from
// one buffered queue. Close stops intake and waits for queued and running
// tasks, so an engine call that already holds a buffer borrow always
// finishes.

package concurrency

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

type TaskFunc func()

// PanicHandler receives the value of a recovered task panic.
type PanicHandler func(v any)

// Executor manages a pool of worker goroutines.
type Executor struct {
	queue   chan TaskFunc
	closeCh chan struct{}
	closed  atomic.Bool
	mu      sync.RWMutex // guards queue sends against close
	wg      sync.WaitGroup

	workers int
	running atomic.Int64
	done    atomic.Uint64
	panics  atomic.Uint64
	onPanic PanicHandler
}

// NewExecutor starts numWorkers workers. Zero selects runtime.NumCPU.
func NewExecutor(numWorkers int, onPanic PanicHandler) (*Executor, error) {
	if numWorkers < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkerCount, numWorkers)
	}
	if numWorkers == 0 {
		numWorkers = runtime.NumCPU()
	}
	e := &Executor{
		queue:   make(chan TaskFunc, numWorkers*4),
		closeCh: make(chan struct{}),
		workers: numWorkers,
		onPanic: onPanic,
	}
	for i := 0; i < numWorkers; i++ {
		e.wg.Add(1)
		go e.run()
	}
	return e, nil
}

// Submit enqueues task, waiting for queue space until ctx ends or the
// executor closes. A task is either accepted or never runs.
func (e *Executor) Submit(ctx context.Context, task TaskFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	select {
	case e.queue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.closeCh:
		return ErrExecutorClosed
	}
}

// Close stops intake and waits for every accepted task to finish.
func (e *Executor) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	close(e.closeCh)
	e.mu.Lock()
	close(e.queue)
	e.mu.Unlock()
	e.wg.Wait()
}

// NumWorkers returns the worker count.
func (e *Executor) NumWorkers() int {
	return e.workers
}

// Stats is a point-in-time view for debug probes.
type Stats struct {
	Workers   int
	Queued    int
	Running   int
	Completed uint64
	Panics    uint64
}

// Stats reports queue depth and task counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Workers:   e.workers,
		Queued:    len(e.queue),
		Running:   int(e.running.Load()),
		Completed: e.done.Load(),
		Panics:    e.panics.Load(),
	}
}

func (e *Executor) run() {
	defer e.wg.Done()
	for task := range e.queue {
		e.safeExecute(task)
	}
}

func (e *Executor) safeExecute(task TaskFunc) {
	e.running.Add(1)
	defer func() {
		if v := recover(); v != nil {
			e.panics.Add(1)
			if e.onPanic != nil {
				e.onPanic(v)
			}
		}
		e.running.Add(-1)
		e.done.Add(1)
	}()
	task()
}
