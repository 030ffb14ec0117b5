// Package collector runs the background sampling loop and manages its
// singleton lifecycle: PID marker, liveness checks, start/stop and the
// periodic tick that feeds the store.
package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// PIDFile manages the collector's PID marker at a fixed path.
//
// The marker alone is a weak singleton guard (there is a window between
// the liveness check and the write); the running supervisor therefore
// additionally holds an exclusive file lock on it for its whole lifetime
// on platforms that support one. See Acquire in lock_unix.go.
type PIDFile struct {
	path string
}

// NewPIDFile returns a PIDFile for the given marker path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the marker location.
func (f *PIDFile) Path() string {
	return f.path
}

// Write records pid in the marker file, creating parent directories as
// needed. The file is world-readable so an unprivileged status check can
// see a privileged collector.
func (f *PIDFile) Write(pid int) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating PID file directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing PID file %s: %w", f.path, err)
	}
	return nil
}

// Read returns the recorded PID. os.IsNotExist holds on the returned
// error when no marker exists.
func (f *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in %s: %w", f.path, err)
	}
	return pid, nil
}

// Remove deletes the marker. A missing marker is not an error; cleanup is
// best-effort and unconditional.
func (f *PIDFile) Remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing PID file %s: %w", f.path, err)
	}
	return nil
}

// LivePID returns the PID of a running collector recorded in this marker.
// A marker pointing at a dead or unparsable PID is stale: it is removed as
// a side effect and (0, false) is returned.
func (f *PIDFile) LivePID() (int, bool) {
	pid, err := f.Read()
	if err != nil {
		if !os.IsNotExist(err) {
			// Unparsable marker; clear it.
			os.Remove(f.path)
		}
		return 0, false
	}

	alive, err := process.PidExists(int32(pid))
	if err != nil || !alive {
		os.Remove(f.path)
		return 0, false
	}
	return pid, true
}

// FindLive probes the marker candidates in order and returns the first
// one naming a live collector. Stale markers encountered along the way
// are removed.
func FindLive(candidates []string) (pidFile *PIDFile, pid int, ok bool) {
	for _, path := range candidates {
		f := NewPIDFile(path)
		if pid, live := f.LivePID(); live {
			return f, pid, true
		}
	}
	return nil, 0, false
}
