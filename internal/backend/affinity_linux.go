//go:build linux

package backend

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinWorker locks the calling goroutine to an OS thread and pins that
// thread to one CPU core. The returned func undoes the thread lock and
// should be deferred. Worker IDs beyond the core count wrap around.
func pinWorker(workerID int) func() {
	runtime.LockOSThread()
	_ = pinToCore(workerID)

	return func() {
		runtime.UnlockOSThread()
	}
}

// pinToCore sets the current thread's affinity to a single core. Must be
// called after runtime.LockOSThread().
func pinToCore(cpuID int) error {
	numCPU := runtime.NumCPU()
	if cpuID >= numCPU {
		cpuID = cpuID % numCPU
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)

	return unix.SchedSetaffinity(0, &mask) // 0 = current thread
}
