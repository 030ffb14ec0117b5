package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStorePath_Windows(t *testing.T) {
	p := &Paths{GOOS: "windows", AppData: `C:\Users\x\AppData\Roaming`}

	path, readOnly := p.StorePath()
	if readOnly {
		t.Error("windows store should never be read-only")
	}
	want := filepath.Join(`C:\Users\x\AppData\Roaming`, "apptraffic", StoreFile)
	if path != want {
		t.Errorf("StorePath() = %q, want %q", path, want)
	}
}

func TestStorePath_PrivilegedUnix(t *testing.T) {
	p := &Paths{GOOS: "linux", Euid: 0, Home: "/root", SystemData: "/var/lib/apptraffic"}

	path, readOnly := p.StorePath()
	if readOnly {
		t.Error("privileged store should be read-write")
	}
	if path != filepath.Join("/var/lib/apptraffic", StoreFile) {
		t.Errorf("StorePath() = %q, want system store", path)
	}
}

func TestStorePath_UnprivilegedFindsSystemStoreReadOnly(t *testing.T) {
	sysData := t.TempDir()
	storeFile := filepath.Join(sysData, StoreFile)
	if err := os.WriteFile(storeFile, []byte("db"), 0o644); err != nil {
		t.Fatalf("writing fake store: %v", err)
	}

	p := &Paths{GOOS: "darwin", Euid: 501, Home: "/Users/x", SystemData: sysData}

	path, readOnly := p.StorePath()
	if !readOnly {
		t.Error("unprivileged access to system store should be read-only")
	}
	if path != storeFile {
		t.Errorf("StorePath() = %q, want %q", path, storeFile)
	}
}

func TestStorePath_UnprivilegedFallsBackToHome(t *testing.T) {
	p := &Paths{
		GOOS:       "linux",
		Euid:       1000,
		Home:       "/home/x",
		SystemData: filepath.Join(t.TempDir(), "does-not-exist"),
	}

	path, readOnly := p.StorePath()
	if readOnly {
		t.Error("per-user store should be read-write")
	}
	want := filepath.Join("/home/x", ".apptraffic", StoreFile)
	if path != want {
		t.Errorf("StorePath() = %q, want %q", path, want)
	}
}

func TestPIDPath_PrivilegeSplit(t *testing.T) {
	root := &Paths{GOOS: "linux", Euid: 0, Home: "/root", SystemRun: "/var/run"}
	if got := root.PIDPath(); got != "/var/run/apptraffic.pid" {
		t.Errorf("privileged PIDPath() = %q", got)
	}

	user := &Paths{GOOS: "linux", Euid: 1000, Home: "/home/x"}
	want := filepath.Join("/home/x", ".apptraffic", PIDFile)
	if got := user.PIDPath(); got != want {
		t.Errorf("unprivileged PIDPath() = %q, want %q", got, want)
	}
}

func TestPIDCandidates_ProbesSystemFirst(t *testing.T) {
	p := &Paths{GOOS: "darwin", Euid: 501, Home: "/Users/x", SystemRun: "/var/run"}

	cands := p.PIDCandidates()
	if len(cands) != 2 {
		t.Fatalf("PIDCandidates() returned %d entries, want 2", len(cands))
	}
	if cands[0] != "/var/run/apptraffic.pid" {
		t.Errorf("first candidate = %q, want system path", cands[0])
	}
}

func TestDataDir_CreatesDirectory(t *testing.T) {
	home := t.TempDir()
	p := &Paths{GOOS: "linux", Euid: 1000, Home: home}

	dir, err := p.DataDir()
	if err != nil {
		t.Fatalf("DataDir() error = %v", err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Errorf("DataDir() did not create %q", dir)
	}
}
