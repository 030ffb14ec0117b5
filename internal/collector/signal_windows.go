//go:build windows

package collector

import "os"

// terminate stops pid. Windows has no SIGTERM delivery for unrelated
// processes, so this kills outright; the supervisor's deferred cleanup
// does not run, and the next liveness check reclaims the stale marker.
func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
