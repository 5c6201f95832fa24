package backend

import (
	"sync/atomic"
	"time"
)

// serialExecutor runs each submission inline on the submitting goroutine.
// Futures it hands out are always already resolved, which makes it the
// reference backend for debugging scheduling issues.
type serialExecutor struct {
	closed atomic.Bool
}

func newSerialExecutor() *serialExecutor {
	return &serialExecutor{}
}

func (s *serialExecutor) Submit(fn Func) *Future {
	fut := newFuture()

	if s.closed.Load() {
		fut.resolve(nil, ErrExecutorClosed)
		return fut
	}

	fut.resolve(runTask(fn))
	return fut
}

func (s *serialExecutor) WaitAll(fs []*Future, timeout time.Duration) bool {
	return true
}

func (s *serialExecutor) Shutdown(wait bool) {
	s.closed.Store(true)
}
