// Package backend implements the execution backends a dispatch step runs on.
//
// A backend is acquired for exactly one dispatch step, receives every
// submission of that step, and is shut down before the next step begins.
// The four variants form a closed set selected by Kind:
//
//   - KindPool: a fixed pool of worker goroutines draining a task channel
//   - KindCPU: the pool variant with workers locked to pinned OS threads
//   - KindSpawn: one goroutine per submission, bounded by a semaphore
//   - KindSerial: inline synchronous execution at submit time
package backend

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrPending is returned by Future.Result when the result is not yet
	// available within the given timeout.
	ErrPending = errors.New("result not ready")

	// ErrExecutorClosed resolves futures submitted after Shutdown.
	ErrExecutorClosed = errors.New("executor shut down")
)

// Func is the unit of work a backend runs. Argument binding is by closure
// capture.
type Func = func(ctx context.Context) (any, error)

// Executor is the capability consumed by a dispatch step: submit work,
// poll the step's futures for completion, release the backend.
type Executor interface {
	// Submit schedules fn and returns its Future. A Future obtained after
	// Shutdown is already resolved with ErrExecutorClosed.
	Submit(fn Func) *Future

	// WaitAll reports whether every future in fs has resolved, polling in
	// a family-specific way for at most timeout.
	WaitAll(fs []*Future, timeout time.Duration) bool

	// Shutdown releases the backend. With wait true it blocks until all
	// in-flight work has finished; results of that work are discarded by
	// the caller, never cancelled. Shutdown is idempotent.
	Shutdown(wait bool)
}

// Kind selects one of the executor variants.
type Kind int

const (
	KindPool Kind = iota
	KindCPU
	KindSpawn
	KindSerial
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPool:
		return "pool"
	case KindCPU:
		return "cpu"
	case KindSpawn:
		return "spawn"
	case KindSerial:
		return "serial"
	default:
		return "unknown"
	}
}

// Option configures an executor at construction time.
type Option func(*config)

type config struct {
	limiter *rate.Limiter
}

// WithLimiter attaches a shared rate limiter gating task starts on the
// pooled and spawn variants. A nil limiter leaves throughput ungated.
func WithLimiter(l *rate.Limiter) Option {
	return func(cfg *config) {
		cfg.limiter = l
	}
}

// New constructs the executor variant selected by kind, sized to
// maxWorkers. A non-positive worker count falls back to the family
// default: runtime.NumCPU() for KindCPU, one worker otherwise.
func New(kind Kind, maxWorkers int, opts ...Option) Executor {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	if maxWorkers <= 0 {
		if kind == KindCPU {
			maxWorkers = runtime.NumCPU()
		} else {
			maxWorkers = 1
		}
	}

	switch kind {
	case KindCPU:
		return newPoolExecutor(maxWorkers, true, cfg.limiter)
	case KindSpawn:
		return newSpawnExecutor(maxWorkers, cfg.limiter)
	case KindSerial:
		return newSerialExecutor()
	case KindPool:
		fallthrough
	default:
		return newPoolExecutor(maxWorkers, false, cfg.limiter)
	}
}

// allReady reports whether every future has resolved, without blocking.
func allReady(fs []*Future) bool {
	for _, f := range fs {
		if !f.IsReady() {
			return false
		}
	}
	return true
}

// waitDeadline blocks until every future resolves or the timer fires,
// then reports completion of the whole set.
func waitDeadline(fs []*Future, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for _, f := range fs {
		select {
		case <-f.Done():
		case <-timer.C:
			return allReady(fs)
		}
	}
	return true
}
