package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/coflow/coflow/internal/backend"
)

// Run outcomes as reported to logs and metrics.
const (
	outcomeDone     = "done"
	outcomeReturned = "returned"
	outcomeFailed   = "failed"
)

// Runner drives one workflow invocation to completion. It starts the
// workflow on its own goroutine, then loops on the caller's goroutine:
// receive yielded work, dispatch it on a scoped executor, poll until it
// resolves (yielding to the host between polls), resume the workflow
// with the outcome.
//
// A Runner is single use. Run may be called once.
type Runner struct {
	eng      *Engine
	workflow Workflow
	id       string
	started  atomic.Bool
}

// ID returns the run's ULID. It is attached to every log record the run
// emits.
func (r *Runner) ID() string {
	return r.id
}

// Run drives the workflow and returns its result. See Engine.Run for
// the result semantics.
func (r *Runner) Run() (any, error) {
	if !r.started.CompareAndSwap(false, true) {
		return nil, errors.New("runner already used")
	}

	start := time.Now()
	log := r.eng.logger.With("run_id", r.id)
	log.Debug("run started")

	fl := newFlow()
	done := make(chan error, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				done <- fmt.Errorf("workflow panic: %v\nstack trace:\n%s", rec, buf[:n])
			}
		}()
		done <- r.workflow(fl)
	}()

	step := 0
	for {
		select {
		case req := <-fl.requests:
			step++
			r.dispatch(log, step, req)
		case err := <-done:
			return r.finish(log, start, err)
		}
	}
}

// dispatch normalizes one yielded value and drives it to completion,
// replying to the workflow when its outcome is known.
func (r *Runner) dispatch(log *slog.Logger, step int, req yieldRequest) {
	switch work := req.work.(type) {
	case *Task:
		value, err := r.runSingle(log, step, work)
		req.reply <- resume{value: value, err: err}
	case []*Task:
		r.runGroup(log, step, NewMultiTask(work), req.reply)
	case *MultiTask:
		r.runGroup(log, step, work, req.reply)
	default:
		req.reply <- resume{err: fmt.Errorf("%w: got %T", ErrBadYield, req.work)}
	}
}

func (r *Runner) runGroup(log *slog.Logger, step int, g *MultiTask, reply chan<- resume) {
	if g.Len() == 0 {
		reply <- resume{err: ErrEmptyGroup}
		return
	}
	if g.unordered {
		r.runUnordered(log, step, g, reply)
		return
	}
	results, err := r.runOrdered(log, step, g)
	reply <- resume{value: results, err: err}
}

// acquire builds the scoped executor for one dispatch step. The caller
// owns it and must shut it down before the step ends.
func (r *Runner) acquire(b Backend, workers int) backend.Executor {
	return backend.New(backend.Kind(b), workers, backend.WithLimiter(r.eng.limiter))
}

// runSingle runs one task on a dedicated one-worker executor, polling
// its future until it resolves.
func (r *Runner) runSingle(log *slog.Logger, step int, t *Task) (any, error) {
	name := t.backend.String()
	log.Debug("dispatch", "step", step, "backend", name, "tasks", 1)
	r.eng.metrics.RecordDispatch(name, 1)

	ex := r.acquire(t.backend, 1)
	defer ex.Shutdown(true)

	fut := ex.Submit(t.fn)
	for {
		value, err := fut.Result(r.eng.poolTimeout)
		if errors.Is(err, ErrPending) && !fut.IsReady() {
			r.eng.idle()
			continue
		}
		r.observe(name, fut)
		if err != nil {
			log.Debug("task failed", "step", step, "error", err)
		}
		return value, err
	}
}

// runOrdered runs a group and collects results in submission order.
func (r *Runner) runOrdered(log *slog.Logger, step int, g *MultiTask) ([]any, error) {
	name := g.backend.String()
	log.Debug("dispatch", "step", step, "backend", name, "tasks", g.Len(), "workers", g.workers)
	r.eng.metrics.RecordDispatch(name, g.Len())

	ex := r.acquire(g.backend, g.workers)
	defer ex.Shutdown(true)

	futs := make([]*backend.Future, len(g.tasks))
	for i, t := range g.tasks {
		futs[i] = ex.Submit(t.fn)
	}

	for !ex.WaitAll(futs, r.eng.poolTimeout) {
		r.eng.idle()
	}
	for _, fut := range futs {
		r.observe(name, fut)
	}

	results := make([]any, 0, len(futs))
	for _, fut := range futs {
		value, err := fut.Get()
		if err != nil {
			if g.skipErrors {
				continue
			}
			log.Debug("group aborted", "step", step, "error", err)
			return nil, err
		}
		results = append(results, value)
	}
	return results, nil
}

// runUnordered runs a group and streams results in completion order.
// The workflow is resumed with the Stream as soon as every member is
// submitted; the runner then keeps draining futures into the stream's
// channel until the group is exhausted or a member fails. The channel
// is buffered for the whole group, so draining never blocks on the
// consumer and the executor is always released before the runner
// accepts the next yield.
func (r *Runner) runUnordered(log *slog.Logger, step int, g *MultiTask, reply chan<- resume) {
	name := g.backend.String()
	log.Debug("dispatch", "step", step, "backend", name, "tasks", g.Len(), "workers", g.workers, "unordered", true)
	r.eng.metrics.RecordDispatch(name, g.Len())

	ex := r.acquire(g.backend, g.workers)
	defer ex.Shutdown(true)

	futs := make([]*backend.Future, len(g.tasks))
	for i, t := range g.tasks {
		futs[i] = ex.Submit(t.fn)
	}

	st, emit := newStream(len(futs))
	reply <- resume{value: st}

	pending := futs
	for len(pending) > 0 {
		var ready, waiting []*backend.Future
		for _, fut := range pending {
			if fut.IsReady() {
				ready = append(ready, fut)
			} else {
				waiting = append(waiting, fut)
			}
		}
		if len(ready) == 0 {
			r.eng.idle()
			continue
		}

		for _, fut := range ready {
			r.observe(name, fut)
			value, err := fut.Get()
			if err != nil {
				if g.skipErrors {
					continue
				}
				log.Debug("stream aborted", "step", step, "error", err)
				emit <- streamItem{err: err}
				close(emit)
				return
			}
			emit <- streamItem{value: value}
		}
		pending = waiting
	}
	close(emit)
}

// observe records one resolved future's telemetry.
func (r *Runner) observe(name string, fut *backend.Future) {
	r.eng.metrics.RecordTaskDuration(name, fut.Elapsed())
	if err := fut.Err(); err != nil {
		var pe *PanicError
		if errors.As(err, &pe) {
			r.eng.metrics.RecordTaskPanic(name)
		} else {
			r.eng.metrics.RecordTaskFailure(name)
		}
	}
}

// finish classifies the workflow's terminal error and settles the run.
func (r *Runner) finish(log *slog.Logger, start time.Time, err error) (any, error) {
	elapsed := time.Since(start)

	if err == nil {
		log.Debug("run finished", "outcome", outcomeDone, "duration", elapsed)
		r.eng.metrics.RecordRun(outcomeDone, elapsed)
		return nil, nil
	}

	var rv *returnValue
	if errors.As(err, &rv) {
		log.Debug("run finished", "outcome", outcomeReturned, "duration", elapsed)
		r.eng.metrics.RecordRun(outcomeReturned, elapsed)
		return rv.value, nil
	}

	log.Debug("run failed", "error", err, "duration", elapsed)
	r.eng.metrics.RecordRun(outcomeFailed, elapsed)
	return nil, err
}
