package engine

import (
	"errors"

	"github.com/coflow/coflow/internal/backend"
)

var (
	// ErrEmptyGroup is delivered to the workflow when it yields a
	// MultiTask with no members.
	ErrEmptyGroup = errors.New("multi-task group is empty")

	// ErrBadYield is delivered to the workflow when it yields something
	// other than a *Task, []*Task, or *MultiTask.
	ErrBadYield = errors.New("yielded value is not a task, task slice, or multi-task")

	// ErrPending reports that a Future has not resolved within the poll
	// timeout. It never reaches workflow code; it is visible to direct
	// Executor users polling futures themselves.
	ErrPending = backend.ErrPending

	// ErrExecutorClosed resolves futures submitted to an Executor after
	// its shutdown.
	ErrExecutorClosed = backend.ErrExecutorClosed
)

// PanicError carries the value and stack of a panic recovered inside a
// task callable. The task's future resolves with it; the worker that ran
// the task survives.
type PanicError = backend.PanicError
