//go:build unix

package collector

import (
	"os"
	"syscall"
)

// terminate sends a graceful termination request to pid.
func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}
