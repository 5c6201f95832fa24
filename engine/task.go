package engine

import (
	"context"
	"fmt"
	"runtime"

	"github.com/coflow/coflow/internal/backend"
)

// TaskFunc is a deferred unit of work. The engine invokes it on whatever
// backend the enclosing Task selects; the function must not assume it
// runs on the workflow's goroutine.
type TaskFunc func(ctx context.Context) (any, error)

// Backend selects which executor variant runs a task or group. The set
// is closed; configuration and task constructors pick a member rather
// than supplying executor implementations.
type Backend int

const (
	// BackendPool runs work on a fixed pool of goroutines. This is the
	// default for tasks and the usual choice for I/O-bound work.
	BackendPool Backend = iota

	// BackendCPU runs work on pool goroutines locked to pinned OS
	// threads, suited to CPU-bound callables.
	BackendCPU

	// BackendSpawn starts one goroutine per task, bounded by a
	// semaphore, and joins them on shutdown.
	BackendSpawn

	// BackendSerial runs work inline at submit time, on the submitting
	// goroutine. Useful for tests and debugging.
	BackendSerial
)

// String returns the configuration name of the backend.
func (b Backend) String() string {
	return backend.Kind(b).String()
}

// ParseBackend maps a configuration string ("pool", "cpu", "spawn",
// "serial") to its Backend.
//
// Returns:
//   - Backend: the matching variant
//   - error: if the name is not one of the four known backends
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "pool":
		return BackendPool, nil
	case "cpu":
		return BackendCPU, nil
	case "spawn":
		return BackendSpawn, nil
	case "serial":
		return BackendSerial, nil
	default:
		return 0, fmt.Errorf("unknown backend %q", s)
	}
}

// Task is a single blocking callable tagged with the backend that should
// run it. A Task always runs alone on a one-worker executor; to run
// callables concurrently, group them in a MultiTask.
type Task struct {
	fn      TaskFunc
	backend Backend
}

// NewTask creates a task that runs fn on the goroutine pool backend.
//
// Parameters:
//   - fn: the blocking callable to defer
//
// Example:
//
//	t := engine.NewTask(func(ctx context.Context) (any, error) {
//	    return fetch(ctx, url)
//	})
func NewTask(fn TaskFunc) *Task {
	return &Task{fn: fn, backend: BackendPool}
}

// NewCPUTask creates a task that runs fn on the CPU backend, whose
// workers are pinned to OS threads.
func NewCPUTask(fn TaskFunc) *Task {
	return &Task{fn: fn, backend: BackendCPU}
}

// NewSpawnTask creates a task that runs fn on the spawn backend, which
// starts a dedicated goroutine per callable.
func NewSpawnTask(fn TaskFunc) *Task {
	return &Task{fn: fn, backend: BackendSpawn}
}

// NewSerialTask creates a task that runs fn inline when dispatched.
func NewSerialTask(fn TaskFunc) *Task {
	return &Task{fn: fn, backend: BackendSerial}
}

// Backend reports which executor variant the task is tagged for.
func (t *Task) Backend() Backend {
	return t.backend
}

// Start runs the callable synchronously on the calling goroutine,
// without any executor. It is the escape hatch for running a task
// outside an engine.
func (t *Task) Start(ctx context.Context) (any, error) {
	return t.fn(ctx)
}

// MultiTask is a group of tasks dispatched together on one scoped
// executor. All members run on the group's backend regardless of their
// individual tags.
type MultiTask struct {
	tasks      []*Task
	backend    Backend
	hasBackend bool
	workers    int
	skipErrors bool
	unordered  bool
}

// GroupOption configures a MultiTask.
type GroupOption func(*MultiTask)

// WithWorkers caps how many group members run concurrently. Values
// below one leave the default in place: one worker per member, or one
// per CPU core for the cpu backend.
func WithWorkers(n int) GroupOption {
	return func(g *MultiTask) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithBackend overrides the group's backend. Without it the group runs
// on the backend of its first member.
func WithBackend(b Backend) GroupOption {
	return func(g *MultiTask) {
		g.backend = b
		g.hasBackend = true
	}
}

// WithSkipErrors makes the group tolerate member failures: failed
// members are omitted from the results instead of aborting the group.
func WithSkipErrors() GroupOption {
	return func(g *MultiTask) {
		g.skipErrors = true
	}
}

// WithUnordered makes the group deliver results as a Stream in
// completion order instead of a slice in submission order.
func WithUnordered() GroupOption {
	return func(g *MultiTask) {
		g.unordered = true
	}
}

// NewMultiTask groups tasks for concurrent dispatch on a single scoped
// executor.
//
// The group's backend defaults to the backend of the first task, so a
// homogeneous slice needs no option. The worker count defaults to one
// per member, except on the cpu backend where it defaults to the number
// of CPU cores.
//
// Parameters:
//   - tasks: the group members; an empty group fails at dispatch with
//     ErrEmptyGroup
//   - opts: optional overrides for backend, workers, error handling,
//     and result ordering
//
// Example:
//
//	g := engine.NewMultiTask(tasks,
//	    engine.WithWorkers(4),
//	    engine.WithSkipErrors(),
//	)
func NewMultiTask(tasks []*Task, opts ...GroupOption) *MultiTask {
	g := &MultiTask{tasks: tasks, backend: BackendPool}
	for _, opt := range opts {
		opt(g)
	}
	if !g.hasBackend && len(tasks) > 0 {
		g.backend = tasks[0].backend
	}
	if g.workers <= 0 {
		g.workers = defaultGroupWorkers(g.backend, len(tasks))
	}
	return g
}

func defaultGroupWorkers(b Backend, size int) int {
	if b == BackendCPU {
		return runtime.NumCPU()
	}
	return size
}

// Len reports how many tasks the group holds.
func (g *MultiTask) Len() int {
	return len(g.tasks)
}

// Backend reports which executor variant the group runs on.
func (g *MultiTask) Backend() Backend {
	return g.backend
}

// Workers reports the group's concurrency cap.
func (g *MultiTask) Workers() int {
	return g.workers
}

// SkipErrors reports whether member failures are omitted rather than
// aborting the group.
func (g *MultiTask) SkipErrors() bool {
	return g.skipErrors
}

// Unordered reports whether results stream in completion order.
func (g *MultiTask) Unordered() bool {
	return g.unordered
}
