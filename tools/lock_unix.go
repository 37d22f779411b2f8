//go:build unix

package tools

import "syscall"

// isProcessRunning reports whether the lock owner is still alive
func isProcessRunning(pid int) bool {
	// Signal 0 probes the process without delivering anything
	err := syscall.Kill(pid, syscall.Signal(0))

	switch err {
	case nil:
		return true
	case syscall.EPERM:
		// Exists but owned by someone else
		return true
	default:
		// ESRCH and anything unexpected
		return false
	}
}
