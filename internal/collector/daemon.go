package collector

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

const (
	// stopPollAttempts bounds how long Stop waits for the collector to
	// exit before forcing marker cleanup, so a wedged process cannot
	// make stop hang forever.
	stopPollAttempts = 10
	stopPollDelay    = 500 * time.Millisecond
)

// daemonArgv builds the argv the child re-enters through. extraArgs carry
// the caller's flags (interval, db, config) so the child collector runs
// with the same settings the parent was started with.
func daemonArgv(extraArgs []string) []string {
	return append([]string{"start", "--foreground"}, extraArgs...)
}

// StartDaemon launches the current binary as a detached background
// collector. The child re-enters through the hidden --foreground flag and
// manages its own PID marker and lock; the parent also writes the marker
// so an immediate status call sees the child.
func StartDaemon(pidFile *PIDFile, logPath string, extraArgs []string) error {
	logF, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", logPath, err)
	}
	defer logF.Close()

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	cmd := exec.Command(executable, daemonArgv(extraArgs)...)
	cmd.Stdout = logF
	cmd.Stderr = logF
	cmd.Stdin = nil
	cmd.SysProcAttr = detachAttr()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting collector process: %w", err)
	}

	if err := pidFile.Write(cmd.Process.Pid); err != nil {
		cmd.Process.Kill()
		return err
	}

	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("detaching collector process: %w", err)
	}
	return nil
}

// StopDaemon stops a running collector found through the marker
// candidates. Returns false when no collector is running (idempotent, not
// an error). The marker is removed regardless of whether the process
// confirmed exit within the bounded wait.
func StopDaemon(candidates []string) (stopped bool, err error) {
	pidFile, pid, ok := FindLive(candidates)
	if !ok {
		return false, nil
	}

	// Marker removal is unconditional: a process that ignores the
	// termination request must not wedge the system into believing it is
	// still supervised.
	defer pidFile.Remove()

	if err := terminate(pid); err != nil {
		return false, fmt.Errorf("signaling collector (PID %d): %w", pid, err)
	}

	for i := 0; i < stopPollAttempts; i++ {
		alive, err := process.PidExists(int32(pid))
		if err != nil || !alive {
			break
		}
		time.Sleep(stopPollDelay)
	}
	return true, nil
}
