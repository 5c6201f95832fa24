//go:build windows

package backend

import (
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
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

// pinToCore sets the current thread's affinity mask to a single core.
// Bit N of the mask selects CPU N.
func pinToCore(cpuID int) error {
	numCPU := runtime.NumCPU()
	if cpuID >= numCPU {
		cpuID = cpuID % numCPU
	}

	handle, _, _ := getCurrentThread.Call()
	mask := uintptr(1 << cpuID)

	prev, _, err := setThreadAffinityMask.Call(handle, mask)
	if prev == 0 {
		return err
	}
	return nil
}
