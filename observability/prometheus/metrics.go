// Package prometheus exports engine telemetry to a Prometheus registry.
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/coflow/coflow/engine"
)

// MetricsExporter implements engine.Metrics on Prometheus collectors.
// Pass it to engine.WithMetrics after registering it once.
type MetricsExporter struct {
	dispatches   *prom.CounterVec
	tasks        *prom.CounterVec
	taskDuration *prom.HistogramVec
	taskFailures *prom.CounterVec
	taskPanics   *prom.CounterVec
	idleTicks    prom.Counter
	runs         *prom.CounterVec
	runDuration  *prom.HistogramVec
}

var _ engine.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates the exporter and registers its collectors
// on reg. It panics if a collector is already registered, so build it
// once per registry.
func NewMetricsExporter(reg prom.Registerer) *MetricsExporter {
	m := &MetricsExporter{
		dispatches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "coflow",
			Name:      "dispatches_total",
			Help:      "Dispatch steps started, by backend.",
		}, []string{"backend"}),
		tasks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "coflow",
			Name:      "tasks_submitted_total",
			Help:      "Tasks submitted to executors, by backend.",
		}, []string{"backend"}),
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "coflow",
			Name:      "task_duration_seconds",
			Help:      "Task wall clock run time, by backend.",
			Buckets:   prom.DefBuckets,
		}, []string{"backend"}),
		taskFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "coflow",
			Name:      "task_failures_total",
			Help:      "Tasks that resolved with an error, by backend.",
		}, []string{"backend"}),
		taskPanics: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "coflow",
			Name:      "task_panics_total",
			Help:      "Tasks whose callable panicked, by backend.",
		}, []string{"backend"}),
		idleTicks: prom.NewCounter(prom.CounterOpts{
			Namespace: "coflow",
			Name:      "idle_ticks_total",
			Help:      "Times the engine yielded to the host while polling.",
		}),
		runs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "coflow",
			Name:      "runs_total",
			Help:      "Finished runs, by outcome.",
		}, []string{"outcome"}),
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "coflow",
			Name:      "run_duration_seconds",
			Help:      "Total run duration, by outcome.",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.dispatches,
		m.tasks,
		m.taskDuration,
		m.taskFailures,
		m.taskPanics,
		m.idleTicks,
		m.runs,
		m.runDuration,
	)
	return m
}

func (m *MetricsExporter) RecordDispatch(backend string, tasks int) {
	m.dispatches.WithLabelValues(backend).Inc()
	m.tasks.WithLabelValues(backend).Add(float64(tasks))
}

func (m *MetricsExporter) RecordTaskDuration(backend string, d time.Duration) {
	m.taskDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *MetricsExporter) RecordTaskFailure(backend string) {
	m.taskFailures.WithLabelValues(backend).Inc()
}

func (m *MetricsExporter) RecordTaskPanic(backend string) {
	m.taskPanics.WithLabelValues(backend).Inc()
}

func (m *MetricsExporter) RecordIdleTick() {
	m.idleTicks.Inc()
}

func (m *MetricsExporter) RecordRun(outcome string, d time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
