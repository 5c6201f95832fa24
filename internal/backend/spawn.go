package backend

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// spawnExecutor starts one goroutine per submission, with a weighted
// semaphore capping how many run at once. WaitAll is a cooperative join:
// it tries to hold the whole semaphore for the timeout, then checks each
// future.
type spawnExecutor struct {
	mu      sync.RWMutex
	sem     *semaphore.Weighted
	weight  int64
	wg      sync.WaitGroup
	closed  atomic.Bool
	limiter *rate.Limiter
}

func newSpawnExecutor(workers int, limiter *rate.Limiter) *spawnExecutor {
	return &spawnExecutor{
		sem:     semaphore.NewWeighted(int64(workers)),
		weight:  int64(workers),
		limiter: limiter,
	}
}

func (s *spawnExecutor) Submit(fn Func) *Future {
	fut := newFuture()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		fut.resolve(nil, ErrExecutorClosed)
		return fut
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		_ = s.sem.Acquire(context.Background(), 1)
		defer s.sem.Release(1)

		if s.limiter != nil {
			_ = s.limiter.Wait(context.Background())
		}
		fut.resolve(runTask(fn))
	}()

	return fut
}

func (s *spawnExecutor) WaitAll(fs []*Future, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, s.weight); err == nil {
		s.sem.Release(s.weight)
	}
	return allReady(fs)
}

// Shutdown stops accepting submissions. With wait true it blocks until
// every spawned goroutine has finished.
func (s *spawnExecutor) Shutdown(wait bool) {
	s.mu.Lock()
	s.closed.Store(true)
	s.mu.Unlock()

	if wait {
		s.wg.Wait()
	}
}
