//go:build windows

package tools

import (
	"os"
	"syscall"
)

// isProcessRunning reports whether the lock owner is still alive.
// os.FindProcess succeeds for any PID on Windows, so the handle is opened
// directly instead.
func isProcessRunning(pid int) bool {
	const da = syscall.STANDARD_RIGHTS_READ | syscall.PROCESS_QUERY_INFORMATION | syscall.SYNCHRONIZE

	h, err := syscall.OpenProcess(da, false, uint32(pid))
	if err != nil {
		return false
	}
	syscall.CloseHandle(h)

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	proc.Release()

	return true
}
