package backend

import (
	"context"
	"sync"
	"time"
)

// Future is the pollable handle to one submitted unit of work. It starts
// pending and resolves exactly once, either with a value or with an error.
type Future struct {
	mu      sync.Mutex
	done    chan struct{}
	value   any
	err     error
	started time.Time
	elapsed time.Duration
}

func newFuture() *Future {
	return &Future{
		done:    make(chan struct{}),
		started: time.Now(),
	}
}

// resolve publishes the outcome and closes the done channel. Later calls
// are ignored; a future resolves at most once.
func (f *Future) resolve(value any, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.done:
		return
	default:
	}

	f.value = value
	f.err = err
	f.elapsed = time.Since(f.started)
	close(f.done)
}

// Get blocks until the future resolves and returns its outcome.
// Multiple calls return the same result.
func (f *Future) Get() (any, error) {
	<-f.done
	return f.value, f.err
}

// GetWithContext blocks until the future resolves or ctx ends, in which
// case the context error is returned and the future stays pending.
func (f *Future) GetWithContext(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result blocks for at most timeout. If the future has not resolved by
// then it returns ErrPending and remains pending without side effects;
// otherwise it returns the value or the task's original error.
func (f *Future) Result(timeout time.Duration) (any, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		return nil, ErrPending
	}
}

// TryGet returns the outcome without blocking. ready is false while the
// future is still pending.
func (f *Future) TryGet() (value any, err error, ready bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		return nil, nil, false
	}
}

// IsReady reports whether the future has resolved.
func (f *Future) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the future resolves, for use in
// select statements.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err returns the task's error once resolved, or nil while pending.
func (f *Future) Err() error {
	if !f.IsReady() {
		return nil
	}
	return f.err
}

// Elapsed returns the time from submission to resolution, or zero while
// the future is still pending.
func (f *Future) Elapsed() time.Duration {
	if !f.IsReady() {
		return 0
	}
	return f.elapsed
}
