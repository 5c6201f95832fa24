package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/coflow/coflow/engine"
)

func TestMetricsExporter(t *testing.T) {
	reg := prom.NewRegistry()
	exporter := NewMetricsExporter(reg)
	eng := engine.New(
		engine.WithPoolTimeout(2*time.Millisecond),
		engine.WithMetrics(exporter),
	)

	boom := errors.New("boom")
	tasks := []*engine.Task{
		engine.NewTask(func(ctx context.Context) (any, error) {
			time.Sleep(10 * time.Millisecond)
			return 1, nil
		}),
		engine.NewTask(func(ctx context.Context) (any, error) {
			return nil, boom
		}),
		engine.NewTask(func(ctx context.Context) (any, error) {
			panic("kaboom")
		}),
	}

	_, err := eng.Run(func(fl *engine.Flow) error {
		_, err := fl.Join(engine.NewMultiTask(tasks, engine.WithSkipErrors()))
		if err != nil {
			return err
		}
		return engine.Return("ok")
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := testutil.ToFloat64(exporter.dispatches.WithLabelValues("pool")); got != 1 {
		t.Errorf("expected 1 dispatch, got %g", got)
	}
	if got := testutil.ToFloat64(exporter.tasks.WithLabelValues("pool")); got != 3 {
		t.Errorf("expected 3 tasks, got %g", got)
	}
	if got := testutil.ToFloat64(exporter.taskFailures.WithLabelValues("pool")); got != 1 {
		t.Errorf("expected 1 failure, got %g", got)
	}
	if got := testutil.ToFloat64(exporter.taskPanics.WithLabelValues("pool")); got != 1 {
		t.Errorf("expected 1 panic, got %g", got)
	}
	if got := testutil.ToFloat64(exporter.runs.WithLabelValues("returned")); got != 1 {
		t.Errorf("expected 1 returned run, got %g", got)
	}
	if got := testutil.ToFloat64(exporter.idleTicks); got == 0 {
		t.Error("expected idle ticks while the slow task ran")
	}

	// Histograms are visible through the registry.
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"coflow_task_duration_seconds",
		"coflow_run_duration_seconds",
	} {
		if !names[want] {
			t.Errorf("expected %s to be registered", want)
		}
	}
}

func TestMetricsExporter_ImplementsMetrics(t *testing.T) {
	var m engine.Metrics = NewMetricsExporter(prom.NewRegistry())
	m.RecordIdleTick()
	m.RecordRun("done", time.Millisecond)
}
