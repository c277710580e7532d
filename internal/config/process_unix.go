//go:build !windows

package config

import (
	"errors"
	"os"
	"syscall"
)

// isProcessAlive reports whether pid names a running process. EPERM means
// the process exists but belongs to another user.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
