// Package firewall manages per-application network blocks through the OS
// firewall tooling: the Application Firewall on macOS, iptables owner
// matching on Linux, and Windows Firewall rules via netsh.
//
// Blocked apps are tracked in a JSON file in the data directory so rules
// can be removed later without re-resolving the executable.
package firewall

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

const blocklistFile = "blocked_apps.json"

// ErrNotBlocked is returned by Unblock when the app has no recorded rule.
var ErrNotBlocked = errors.New("app is not blocked")

// BlockedApp is one entry of the persisted blocklist.
type BlockedApp struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Manager applies and removes firewall rules for individual applications.
// Commands are executed through the run field so tests can intercept them.
type Manager struct {
	listPath string
	goos     string
	run      func(name string, args ...string) ([]byte, error)
}

// New returns a Manager persisting its blocklist under dataDir.
func New(dataDir string) *Manager {
	return &Manager{
		listPath: filepath.Join(dataDir, blocklistFile),
		goos:     runtime.GOOS,
		run:      runCommand,
	}
}

func runCommand(name string, args ...string) ([]byte, error) {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s %s failed: %w (output: %s)",
			name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// Block resolves identifier to an executable, installs a block rule for it,
// and records it in the blocklist. identifier is either a process name of a
// running application or a path to an executable. Returns the app name the
// rule was recorded under.
func (m *Manager) Block(identifier string) (string, error) {
	exePath, err := m.resolvePath(identifier)
	if err != nil {
		return "", err
	}
	name := appNameForPath(exePath)

	if err := m.platformBlock(exePath, name); err != nil {
		return "", err
	}

	blocked, err := m.load()
	if err != nil {
		return "", err
	}
	blocked[name] = exePath
	if err := m.save(blocked); err != nil {
		return "", err
	}
	return name, nil
}

// Unblock removes the firewall rule for identifier (a recorded app name or
// executable path) and drops it from the blocklist.
func (m *Manager) Unblock(identifier string) (string, error) {
	blocked, err := m.load()
	if err != nil {
		return "", err
	}

	name, exePath, ok := lookup(blocked, identifier)
	if !ok {
		return "", fmt.Errorf("%q: %w", identifier, ErrNotBlocked)
	}

	if err := m.platformUnblock(exePath, name); err != nil {
		return "", err
	}

	delete(blocked, name)
	if err := m.save(blocked); err != nil {
		return "", err
	}
	return name, nil
}

// List returns the recorded blocklist sorted by app name.
func (m *Manager) List() ([]BlockedApp, error) {
	blocked, err := m.load()
	if err != nil {
		return nil, err
	}
	apps := make([]BlockedApp, 0, len(blocked))
	for name, path := range blocked {
		apps = append(apps, BlockedApp{Name: name, Path: path})
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps, nil
}

// lookup matches identifier against blocklist entries by name
// (case-insensitive) and then by recorded path.
func lookup(blocked map[string]string, identifier string) (name, path string, ok bool) {
	for n, p := range blocked {
		if strings.EqualFold(n, identifier) {
			return n, p, true
		}
	}
	for n, p := range blocked {
		if p == identifier {
			return n, p, true
		}
	}
	return "", "", false
}

// resolvePath turns a process name or path into a concrete executable path.
// A path argument is used as-is if the file exists. A name is matched against
// running processes; ambiguous matches are an error so the user can pass the
// full path instead.
func (m *Manager) resolvePath(identifier string) (string, error) {
	if strings.ContainsRune(identifier, os.PathSeparator) || strings.ContainsRune(identifier, '/') {
		if _, err := os.Stat(identifier); err != nil {
			return "", fmt.Errorf("executable path %s: %w", identifier, err)
		}
		return identifier, nil
	}

	procs, err := process.Processes()
	if err != nil {
		return "", fmt.Errorf("listing processes: %w", err)
	}

	want := strings.ToLower(identifier)
	seen := make(map[string]bool)
	var matches []string
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(name), want) {
			continue
		}
		exe, err := p.Exe()
		if err != nil || exe == "" {
			continue
		}
		real, err := filepath.EvalSymlinks(exe)
		if err != nil {
			real = exe
		}
		if !seen[real] {
			seen[real] = true
			matches = append(matches, exe)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no running process matches %q; start the app first or pass the executable path", identifier)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("multiple processes match %q (%s); pass the executable path instead",
			identifier, strings.Join(matches, ", "))
	}
}

// appNameForPath derives the blocklist key from an executable path. Bundled
// macOS apps record the bundle name so block and unblock line up with what
// usage reports show.
func appNameForPath(exePath string) string {
	if idx := strings.Index(exePath, ".app/"); idx >= 0 {
		return strings.TrimSuffix(filepath.Base(exePath[:idx+4]), ".app")
	}
	base := filepath.Base(exePath)
	if strings.EqualFold(filepath.Ext(base), ".exe") {
		return base[:len(base)-len(".exe")]
	}
	return base
}

// bundlePath returns the enclosing .app bundle for exePath, or the path
// itself when it is not inside a bundle. socketfilterfw operates on bundles.
func bundlePath(exePath string) string {
	if idx := strings.Index(exePath, ".app/"); idx >= 0 {
		return exePath[:idx+4]
	}
	return exePath
}

func (m *Manager) platformBlock(exePath, name string) error {
	switch m.goos {
	case "darwin":
		target := bundlePath(exePath)
		// --add is idempotent enough: already-listed apps report an error
		// text but blocking still applies, so only --blockapp is fatal.
		m.run("/usr/libexec/ApplicationFirewall/socketfilterfw", "--add", target)
		if _, err := m.run("/usr/libexec/ApplicationFirewall/socketfilterfw", "--blockapp", target); err != nil {
			return err
		}
		return nil
	case "linux":
		cmd := filepath.Base(exePath)
		if _, err := m.run("iptables", "-A", "OUTPUT", "-m", "owner", "--cmd-owner", cmd, "-j", "DROP"); err != nil {
			return err
		}
		if _, err := m.run("iptables", "-A", "INPUT", "-m", "owner", "--cmd-owner", cmd, "-j", "DROP"); err != nil {
			return err
		}
		return nil
	case "windows":
		// Delete any leftover rules so repeated blocks do not stack.
		m.run("netsh", "advfirewall", "firewall", "delete", "rule", "name="+ruleName(name, "Out"))
		m.run("netsh", "advfirewall", "firewall", "delete", "rule", "name="+ruleName(name, "In"))
		if _, err := m.run("netsh", "advfirewall", "firewall", "add", "rule",
			"name="+ruleName(name, "Out"), "dir=out", "action=block", "program="+exePath, "enable=yes"); err != nil {
			return err
		}
		if _, err := m.run("netsh", "advfirewall", "firewall", "add", "rule",
			"name="+ruleName(name, "In"), "dir=in", "action=block", "program="+exePath, "enable=yes"); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("firewall control is not supported on %s", m.goos)
	}
}

func (m *Manager) platformUnblock(exePath, name string) error {
	switch m.goos {
	case "darwin":
		target := bundlePath(exePath)
		if _, err := m.run("/usr/libexec/ApplicationFirewall/socketfilterfw", "--unblockapp", target); err != nil {
			return err
		}
		m.run("/usr/libexec/ApplicationFirewall/socketfilterfw", "--remove", target)
		return nil
	case "linux":
		cmd := filepath.Base(exePath)
		if _, err := m.run("iptables", "-D", "OUTPUT", "-m", "owner", "--cmd-owner", cmd, "-j", "DROP"); err != nil {
			return err
		}
		if _, err := m.run("iptables", "-D", "INPUT", "-m", "owner", "--cmd-owner", cmd, "-j", "DROP"); err != nil {
			return err
		}
		return nil
	case "windows":
		if _, err := m.run("netsh", "advfirewall", "firewall", "delete", "rule", "name="+ruleName(name, "Out")); err != nil {
			return err
		}
		if _, err := m.run("netsh", "advfirewall", "firewall", "delete", "rule", "name="+ruleName(name, "In")); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("firewall control is not supported on %s", m.goos)
	}
}

// ruleName builds a Windows Firewall rule name from an app name, keeping only
// characters netsh accepts unquoted.
func ruleName(app, dir string) string {
	var b strings.Builder
	for _, r := range app {
		if r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return "AppTraffic_Block_" + b.String() + "_" + dir
}

func (m *Manager) load() (map[string]string, error) {
	data, err := os.ReadFile(m.listPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading blocklist %s: %w", m.listPath, err)
	}
	blocked := make(map[string]string)
	if err := json.Unmarshal(data, &blocked); err != nil {
		return nil, fmt.Errorf("parsing blocklist %s: %w", m.listPath, err)
	}
	return blocked, nil
}

func (m *Manager) save(blocked map[string]string) error {
	data, err := json.MarshalIndent(blocked, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding blocklist: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.listPath), 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := os.WriteFile(m.listPath, data, 0644); err != nil {
		return fmt.Errorf("writing blocklist %s: %w", m.listPath, err)
	}
	return nil
}
