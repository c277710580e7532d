//go:build windows

package config

import "os"

// isProcessAlive reports whether pid can be opened. FindProcess on Windows
// opens a handle, so a failure means the process is gone.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	p.Release()
	return true
}
