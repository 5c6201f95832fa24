package engine

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Option configures an Engine.
type Option func(*Engine)

// WithPoolTimeout sets how long each poll of pending work blocks before
// the engine yields to the host via the idle hook. Values of zero or
// below leave the default (DefaultPoolTimeout) in place.
//
// Shorter timeouts make the host loop more responsive; longer ones poll
// less. The timeout never fails work, it only paces the polling.
func WithPoolTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.poolTimeout = d
		}
	}
}

// WithIdleHook sets the function the engine calls on the runner's
// goroutine whenever a poll comes back with work still pending. Hosts
// embedding the engine in an event loop use it to process their queue;
// the default sleeps for the pool timeout.
//
// The hook must return; the engine polls again after each call.
func WithIdleHook(hook func()) Option {
	return func(e *Engine) {
		if hook != nil {
			e.idleHook = hook
		}
	}
}

// WithLogger sets the structured logger for run and dispatch events.
// The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the telemetry sink for dispatches, task outcomes,
// idle ticks, and run results. The default discards everything.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithRateLimit caps how fast executors start tasks, across every
// dispatch the engine makes. Both values must be positive for the limit
// to take effect.
//
// Parameters:
//   - tasksPerSecond: sustained task start rate
//   - burst: how many starts may happen back to back
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(e *Engine) {
		if tasksPerSecond > 0 && burst > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}
