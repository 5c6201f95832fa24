package engine

import (
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/coflow/coflow/config"
)

// DefaultPoolTimeout is how long each poll of pending work blocks before
// the engine yields to the host.
const DefaultPoolTimeout = 20 * time.Millisecond

// Engine drives workflows that offload blocking work to executor
// backends. It holds the knobs shared by every run it starts: the poll
// timeout, the idle hook that keeps a host loop alive, the logger, the
// metrics sink, and an optional task start rate limit.
//
// An Engine is immutable after New and safe for concurrent use; each
// Run gets its own Runner.
type Engine struct {
	poolTimeout time.Duration
	idleHook    func()
	logger      *slog.Logger
	metrics     Metrics
	limiter     *rate.Limiter
}

// New creates an Engine.
//
// Parameters:
//   - opts: optional configuration, applied in order
//
// Example:
//
//	eng := engine.New(
//	    engine.WithPoolTimeout(5*time.Millisecond),
//	    engine.WithIdleHook(app.ProcessEvents),
//	)
//	result, err := eng.Run(workflow)
func New(opts ...Option) *Engine {
	e := &Engine{
		poolTimeout: DefaultPoolTimeout,
		logger:      slog.New(slog.DiscardHandler),
		metrics:     NilMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.idleHook == nil {
		e.idleHook = func() { time.Sleep(e.poolTimeout) }
	}
	return e
}

// NewFromConfig creates an Engine from a loaded configuration. Explicit
// options are applied after the configuration and win on conflict.
//
// The configuration carries no logger or metrics sink; wire those with
// WithLogger (see config.NewLogger) and WithMetrics.
func NewFromConfig(cfg *config.Config, opts ...Option) *Engine {
	base := []Option{
		WithPoolTimeout(cfg.PoolTimeout.AsDuration()),
		WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	}
	return New(append(base, opts...)...)
}

// PoolTimeout reports the engine's poll timeout.
func (e *Engine) PoolTimeout() time.Duration {
	return e.poolTimeout
}

// Run drives the workflow to completion on the calling goroutine and
// returns its result.
//
// Returns:
//   - any: the value passed to Return, or nil if the workflow ran to
//     exhaustion
//   - error: the workflow's failure, a failed task's error unwound
//     through the workflow, or the workflow's own panic
//
// The caller's goroutine hosts all polling and idle hook calls, so an
// event loop that calls Run keeps servicing itself through the hook.
func (e *Engine) Run(w Workflow) (any, error) {
	return e.NewRunner(w).Run()
}

// Wrap turns a workflow into a plain function that runs it on this
// engine each time it is called. It is sugar for deferring Run:
//
//	fetchAll := eng.Wrap(fetchAllWorkflow)
//	...
//	result, err := fetchAll()
func (e *Engine) Wrap(w Workflow) func() (any, error) {
	return func() (any, error) {
		return e.Run(w)
	}
}

// NewRunner creates the single-use Runner for one workflow run. Most
// callers use Run; NewRunner is for callers that want the run's
// identity before starting it.
func (e *Engine) NewRunner(w Workflow) *Runner {
	return &Runner{
		eng:      e,
		workflow: w,
		id:       ulid.Make().String(),
	}
}

// idle yields to the host once: it records the tick and calls the idle
// hook on the current goroutine.
func (e *Engine) idle() {
	e.metrics.RecordIdleTick()
	e.idleHook()
}
