//go:build !linux && !windows

package backend

import "runtime"

// pinWorker locks the calling goroutine to an OS thread. Core pinning is
// not available on this platform.
func pinWorker(workerID int) func() {
	runtime.LockOSThread()

	return func() {
		runtime.UnlockOSThread()
	}
}
