package engine

import "time"

// Metrics receives scheduling telemetry from the engine. Implementations
// must be safe for concurrent use; the engine calls them from runner
// goroutines.
//
// The observability/prometheus package provides an implementation that
// exports these series to a Prometheus registry.
type Metrics interface {
	// RecordDispatch is called once per dispatch step with the backend
	// name and the number of tasks submitted.
	RecordDispatch(backend string, tasks int)

	// RecordTaskDuration is called once per completed task with its
	// wall-clock run time.
	RecordTaskDuration(backend string, d time.Duration)

	// RecordTaskFailure is called for each task that resolved with an
	// error other than a panic.
	RecordTaskFailure(backend string)

	// RecordTaskPanic is called for each task whose callable panicked.
	RecordTaskPanic(backend string)

	// RecordIdleTick is called each time the engine yields to the host
	// while waiting on pending work.
	RecordIdleTick()

	// RecordRun is called once per finished run with the outcome
	// ("done", "returned", or "failed") and the total run duration.
	RecordRun(outcome string, d time.Duration)
}

// NilMetrics discards all telemetry. It is the default when no Metrics
// is configured.
type NilMetrics struct{}

func (NilMetrics) RecordDispatch(string, int)                {}
func (NilMetrics) RecordTaskDuration(string, time.Duration)  {}
func (NilMetrics) RecordTaskFailure(string)                  {}
func (NilMetrics) RecordTaskPanic(string)                    {}
func (NilMetrics) RecordIdleTick()                           {}
func (NilMetrics) RecordRun(string, time.Duration)           {}

var _ Metrics = NilMetrics{}
