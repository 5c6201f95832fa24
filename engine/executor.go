package engine

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/coflow/coflow/config"
	"github.com/coflow/coflow/internal/backend"
)

// Executor gives applications direct access to an execution backend
// outside any workflow run: submit callables, hold their futures, shut
// the executor down when done. Inside a workflow, yield tasks through
// the Flow instead; the engine scopes executors per dispatch there.
type Executor struct {
	kind Backend
	exec backend.Executor
}

// NewExecutor creates an executor on the given backend.
//
// Parameters:
//   - b: which backend variant to run on
//   - maxWorkers: concurrency cap; values below one default to one
//     worker, or one per CPU core on the cpu backend
//
// Example:
//
//	ex := engine.NewExecutor(engine.BackendPool, 8)
//	defer ex.Shutdown(true)
//	fut := ex.Submit(job)
func NewExecutor(b Backend, maxWorkers int) *Executor {
	return &Executor{kind: b, exec: backend.New(backend.Kind(b), maxWorkers)}
}

// NewExecutorFromConfig creates an executor from a loaded
// configuration, including its backend, worker cap, and task start
// rate limit.
func NewExecutorFromConfig(cfg *config.Config) (*Executor, error) {
	b, err := ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	var opts []backend.Option
	if cfg.RateLimit > 0 && cfg.RateBurst > 0 {
		opts = append(opts, backend.WithLimiter(
			rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		))
	}
	return &Executor{kind: b, exec: backend.New(backend.Kind(b), cfg.MaxWorkers, opts...)}, nil
}

// Backend reports which backend variant the executor runs on.
func (x *Executor) Backend() Backend {
	return x.kind
}

// Submit schedules fn and returns its Future. After Shutdown, the
// future resolves immediately with ErrExecutorClosed.
func (x *Executor) Submit(fn TaskFunc) *backend.Future {
	return x.exec.Submit(fn)
}

// Map runs fn over every input concurrently and returns the outputs in
// input order. The first failure in input order aborts and is returned.
func (x *Executor) Map(inputs []any, fn func(any) (any, error)) ([]any, error) {
	futs := make([]*backend.Future, len(inputs))
	for i, in := range inputs {
		futs[i] = x.exec.Submit(func(ctx context.Context) (any, error) {
			return fn(in)
		})
	}

	results := make([]any, 0, len(futs))
	for _, fut := range futs {
		value, err := fut.Get()
		if err != nil {
			return nil, err
		}
		results = append(results, value)
	}
	return results, nil
}

// Shutdown stops the executor. With wait true it blocks until accepted
// work has finished; with wait false it returns immediately and lets
// in-flight work finish in the background. Either way, later submissions
// resolve with ErrExecutorClosed.
func (x *Executor) Shutdown(wait bool) {
	x.exec.Shutdown(wait)
}

// MapSlice is the typed form of Executor.Map: it runs fn over every
// input concurrently and returns the outputs in input order.
func MapSlice[T, R any](x *Executor, inputs []T, fn func(T) (R, error)) ([]R, error) {
	futs := make([]*backend.Future, len(inputs))
	for i, in := range inputs {
		futs[i] = x.exec.Submit(func(ctx context.Context) (any, error) {
			return fn(in)
		})
	}

	results := make([]R, 0, len(futs))
	for _, fut := range futs {
		value, err := fut.Get()
		if err != nil {
			return nil, err
		}
		typed, _ := value.(R)
		results = append(results, typed)
	}
	return results, nil
}
