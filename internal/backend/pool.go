package backend

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// PanicError is the error a worker resolves a future with when the task
// callable panics. The worker itself survives.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v\nstack trace:\n%s", e.Value, e.Stack)
}

type submission struct {
	fn  Func
	fut *Future
}

// poolExecutor runs submissions on a fixed set of worker goroutines
// draining a shared task channel. With pin set, each worker locks itself
// to an OS thread and pins to a CPU core, which suits CPU-bound groups.
type poolExecutor struct {
	mu      sync.RWMutex
	tasks   chan submission
	done    chan struct{} // closed when all workers have exited
	closed  atomic.Bool
	limiter *rate.Limiter
}

func newPoolExecutor(workers int, pin bool, limiter *rate.Limiter) *poolExecutor {
	p := &poolExecutor{
		tasks:   make(chan submission, workers),
		done:    make(chan struct{}),
		limiter: limiter,
	}

	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			return p.worker(i, pin)
		})
	}

	go func() {
		_ = g.Wait()
		close(p.done)
	}()

	return p
}

// worker drains the task channel until it is closed. A panicking task is
// converted to an error on its future; the worker keeps running.
func (p *poolExecutor) worker(id int, pin bool) error {
	if pin {
		unpin := pinWorker(id)
		defer unpin()
	}

	for sub := range p.tasks {
		if p.limiter != nil {
			_ = p.limiter.Wait(context.Background())
		}
		sub.fut.resolve(runTask(sub.fn))
	}
	return nil
}

func (p *poolExecutor) Submit(fn Func) *Future {
	fut := newFuture()

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed.Load() {
		fut.resolve(nil, ErrExecutorClosed)
		return fut
	}

	p.tasks <- submission{fn: fn, fut: fut}
	return fut
}

func (p *poolExecutor) WaitAll(fs []*Future, timeout time.Duration) bool {
	return waitDeadline(fs, timeout)
}

// Shutdown closes the task channel so workers drain and exit. With wait
// true it blocks until the last worker has finished.
func (p *poolExecutor) Shutdown(wait bool) {
	p.mu.Lock()
	if p.closed.CompareAndSwap(false, true) {
		close(p.tasks)
	}
	p.mu.Unlock()

	if wait {
		<-p.done
	}
}

// runTask invokes fn with panic recovery so a single task cannot take
// down its worker.
func runTask(fn Func) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = &PanicError{Value: r, Stack: buf[:n]}
		}
	}()

	return fn(context.Background())
}
