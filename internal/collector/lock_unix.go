//go:build unix

package collector

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Acquire takes an exclusive, non-blocking flock on the marker file and
// holds it until release is called. This closes the check-then-write race
// the bare PID file leaves open: even if two collectors pass the liveness
// check simultaneously, only one gets the lock. The lock lives on the
// inode, so the later Write of the PID content does not drop it.
func (f *PIDFile) Acquire() (release func(), err error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating PID file directory: %w", err)
	}
	fd, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening PID file %s: %w", f.path, err)
	}
	if err := unix.Flock(int(fd.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		fd.Close()
		return nil, fmt.Errorf("PID file %s is locked by another collector: %w", f.path, err)
	}
	return func() {
		unix.Flock(int(fd.Fd()), unix.LOCK_UN)
		fd.Close()
	}, nil
}
