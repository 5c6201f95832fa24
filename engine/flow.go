package engine

import "fmt"

// Workflow is the function a run drives. It receives a Flow and uses it
// to yield blocking work to the engine; between yields it runs ordinary
// sequential code. A nil return means the workflow ran to exhaustion; an
// error built by Return carries an early result; any other error fails
// the run.
type Workflow func(fl *Flow) error

// resume carries a dispatch step's outcome back into the workflow.
type resume struct {
	value any
	err   error
}

// yieldRequest carries yielded work from the workflow to the runner.
type yieldRequest struct {
	work  any
	reply chan resume
}

// Flow is a workflow's handle for yielding work to its runner. Each
// yield suspends the workflow until the runner has driven the work to
// completion; exactly one yield is in flight per run at any time.
//
// A Flow is valid only inside the workflow invocation it was passed to.
type Flow struct {
	requests chan yieldRequest
	reply    chan resume
}

func newFlow() *Flow {
	return &Flow{
		requests: make(chan yieldRequest),
		reply:    make(chan resume),
	}
}

// Await yields any dispatchable work and blocks until the runner
// resumes the workflow with its outcome. Accepted work is a *Task, a
// []*Task (treated as an ordered group on the first task's backend), or
// a *MultiTask; anything else resumes with ErrBadYield.
//
// The typed wrappers Do, Join, and Stream cover the common cases; Await
// is for code that dispatches heterogeneous work generically.
func (fl *Flow) Await(work any) (any, error) {
	fl.requests <- yieldRequest{work: work, reply: fl.reply}
	r := <-fl.reply
	return r.value, r.err
}

// Do yields a single task and returns its result.
//
// Parameters:
//   - t: the task to run on its tagged backend
//
// Returns:
//   - any: the task's value on success
//   - error: the task's error, including *PanicError if it panicked
func (fl *Flow) Do(t *Task) (any, error) {
	return fl.Await(t)
}

// Join yields an ordered group and returns its results in submission
// order. With WithSkipErrors, failed members are omitted and the slice
// holds only the successes; otherwise the first failure in submission
// order aborts the group and is returned.
func (fl *Flow) Join(g *MultiTask) ([]any, error) {
	v, err := fl.Await(g)
	if err != nil {
		return nil, err
	}
	results, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("group is unordered; use Stream")
	}
	return results, nil
}

// Stream yields an unordered group and returns a Stream of its results
// in completion order. The group's executor stays alive until the
// stream is exhausted; the workflow must drain it (Next until false, or
// Collect) before yielding again.
func (fl *Flow) Stream(g *MultiTask) (*Stream, error) {
	v, err := fl.Await(g)
	if err != nil {
		return nil, err
	}
	st, ok := v.(*Stream)
	if !ok {
		return nil, fmt.Errorf("group is ordered; use Join")
	}
	return st, nil
}

// DoAs yields a single task and asserts its result to T.
func DoAs[T any](fl *Flow, t *Task) (T, error) {
	var zero T
	v, err := fl.Do(t)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("task returned %T, want %T", v, zero)
	}
	return typed, nil
}

// JoinAs yields an ordered group and asserts every result to T.
func JoinAs[T any](fl *Flow, g *MultiTask) ([]T, error) {
	var zero T
	values, err := fl.Join(g)
	if err != nil {
		return nil, err
	}
	results := make([]T, 0, len(values))
	for i, v := range values {
		typed, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("result %d is %T, want %T", i, v, zero)
		}
		results = append(results, typed)
	}
	return results, nil
}
