// Package engine drives sequential workflows that offload their
// blocking work to pluggable execution backends.
//
// A workflow is ordinary Go code that yields tasks to the engine and
// suspends until their results come back. The engine runs each yielded
// step on a short-lived executor scoped to that step, polls for
// completion in small time slices, and hands control to a host idle
// hook between polls so an embedding event loop stays responsive.
//
// # Workflows
//
// A workflow receives a Flow and yields work through it:
//
//	result, err := eng.Run(func(fl *engine.Flow) error {
//	    user, err := fl.Do(engine.NewTask(loadUser))
//	    if err != nil {
//	        return err
//	    }
//	    orders, err := fl.Join(engine.NewMultiTask(orderTasks(user)))
//	    if err != nil {
//	        return err
//	    }
//	    return engine.Return(render(user, orders))
//	})
//
// Exactly one yield is in flight at a time: the workflow stops at each
// Do, Join, or Stream until that step has fully resolved. Concurrency
// lives inside a step, never across steps.
//
// # Backends
//
// Every task carries a backend tag naming one of four executor
// variants: pool (fixed goroutine pool), cpu (pool workers pinned to OS
// threads), spawn (goroutine per task, semaphore bounded), and serial
// (inline execution). The set is closed; configuration selects a
// variant rather than supplying an implementation.
//
// # Ordered and unordered groups
//
// A MultiTask dispatches several tasks on one executor. By default the
// results come back as a slice mirroring submission order, with the
// first failure aborting the group. WithSkipErrors keeps going and
// omits failures; WithUnordered swaps the slice for a Stream that
// delivers each result as it completes.
//
// # Early return
//
// Return(v) stops a run from any depth of helpers by traveling the
// ordinary error path. The runner intercepts it, so Engine.Run reports
// (v, nil). A workflow that returns nil ran to exhaustion and yields a
// nil result.
//
// # Host loop integration
//
// All polling happens on the goroutine that called Run. Whenever a poll
// times out, the engine invokes the idle hook there, so a GUI or other
// event loop can pump its queue by running the engine with
// WithIdleHook(app.ProcessEvents). The default hook sleeps for the pool
// timeout.
//
// # Direct executors
//
// Code that wants futures without a workflow can build an Executor
// directly, submit callables, and shut it down when finished. Task
// timeouts there surface as ErrPending, a scheduling signal rather than
// a failure; the work keeps running and the future can be polled again.
package engine
