// Package platform resolves data, store and PID-marker locations based on
// operating system and effective privilege.
//
// The policy exists so that one installation shares one store across
// privilege levels: a root collector writes under a world-readable system
// directory, and an unprivileged query command finds and opens that same
// file read-only instead of silently creating a second, empty store in the
// user's home directory.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// StoreFile is the database file name inside the resolved data dir.
	StoreFile = "network_stats.db"
	// PIDFile is the collector PID-marker file name.
	PIDFile = "collector.pid"
	// LogFile is the collector daemon log file name.
	LogFile = "collector.log"
	// ConfigFile is the default configuration file name.
	ConfigFile = "config.yaml"

	productDir = "apptraffic"
	dotDir     = ".apptraffic"
)

// Paths resolves file placement for the current platform and privilege
// level. The zero value is not usable; construct with Default, or with a
// struct literal in tests to pin GOOS/euid.
type Paths struct {
	GOOS string
	Euid int
	Home string
	// AppData is the per-user roaming data root (Windows only).
	AppData string
	// SystemData is the privileged system-wide data directory.
	SystemData string
	// SystemRun is the privileged runtime directory for the PID marker.
	SystemRun string
}

// Default returns the resolver for the running process.
func Default() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	p := &Paths{
		GOOS:       runtime.GOOS,
		Euid:       os.Geteuid(),
		Home:       home,
		SystemData: filepath.Join("/var/lib", productDir),
		SystemRun:  "/var/run",
	}
	if p.GOOS == "windows" {
		if appData, err := os.UserConfigDir(); err == nil {
			p.AppData = appData
		} else {
			p.AppData = filepath.Join(home, "AppData", "Roaming")
		}
	}
	return p, nil
}

// privileged reports whether the effective user can write the system-wide
// locations. Windows has no euid; its policy is always per-user.
func (p *Paths) privileged() bool {
	return p.GOOS != "windows" && p.Euid == 0
}

// userDataDir is the per-user fallback data directory.
func (p *Paths) userDataDir() string {
	if p.GOOS == "windows" {
		return filepath.Join(p.AppData, productDir)
	}
	return filepath.Join(p.Home, dotDir)
}

// StorePath resolves the database location. readOnly is true when the
// caller should open an elevated collector's store without write access:
// an unprivileged process that finds a readable system-wide store must use
// it rather than shadowing it with an empty per-user one.
func (p *Paths) StorePath() (path string, readOnly bool) {
	if p.GOOS == "windows" {
		return filepath.Join(p.userDataDir(), StoreFile), false
	}
	systemStore := filepath.Join(p.SystemData, StoreFile)
	if p.privileged() {
		return systemStore, false
	}
	if readable(systemStore) {
		return systemStore, true
	}
	return filepath.Join(p.userDataDir(), StoreFile), false
}

// DataDir returns the writable data directory for the current privilege
// level, creating it if needed. The privileged directory is created
// world-readable (0755) so later unprivileged readers can traverse into
// it.
func (p *Paths) DataDir() (string, error) {
	dir := p.userDataDir()
	if p.privileged() {
		dir = p.SystemData
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return dir, nil
}

// EnsureStoreReadable widens the store file permissions after a privileged
// collector created it, so unprivileged queries can open it read-only.
// No-op for unprivileged callers.
func (p *Paths) EnsureStoreReadable(storePath string) error {
	if !p.privileged() {
		return nil
	}
	if err := os.Chmod(storePath, 0o644); err != nil {
		return fmt.Errorf("making store world-readable: %w", err)
	}
	// WAL sidecar files must be readable too or read-only opens fail.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Chmod(storePath+suffix, 0o644); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("making store sidecar world-readable: %w", err)
		}
	}
	return nil
}

// PIDPath returns where this process should write the collector PID
// marker.
func (p *Paths) PIDPath() string {
	if p.privileged() {
		return filepath.Join(p.SystemRun, productDir+".pid")
	}
	return filepath.Join(p.userDataDir(), PIDFile)
}

// PIDCandidates returns the probe order for liveness checks: the system
// marker first, then the per-user one, so an unprivileged status or stop
// still sees a privileged collector.
func (p *Paths) PIDCandidates() []string {
	if p.GOOS == "windows" {
		return []string{filepath.Join(p.userDataDir(), PIDFile)}
	}
	return []string{
		filepath.Join(p.SystemRun, productDir+".pid"),
		filepath.Join(p.userDataDir(), PIDFile),
	}
}

// LogPath returns the daemon log file location alongside the store.
func (p *Paths) LogPath() string {
	if p.privileged() {
		return filepath.Join(p.SystemData, LogFile)
	}
	return filepath.Join(p.userDataDir(), LogFile)
}

// ConfigPath returns the default configuration file location. The config
// is always per-user; a privileged collector still reads the invoking
// user's file when present.
func (p *Paths) ConfigPath() string {
	return filepath.Join(p.userDataDir(), ConfigFile)
}

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
