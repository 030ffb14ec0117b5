// Package procid derives stable application identities from OS process
// metadata.
//
// The same binary shows up under different names depending on the platform
// convention: macOS applications live inside .app bundles, Windows
// executables carry an .exe suffix, and Linux processes are just their
// process name. AppName normalizes all three into one identity string so
// that the sampler, the attribution engine and the store all agree on what
// an "application" is.
//
// Identities are heuristic: two unrelated binaries with the same basename
// collide on purpose.
package procid

import (
	"path/filepath"
	"strings"
)

// Unknown is the identity used for processes whose metadata could not be
// read (exited mid-enumeration, permission denied). A single unreadable
// process must never abort a sampling pass, so resolution degrades to this
// sentinel instead of failing.
const Unknown = "Unknown"

// bundleMarker is the macOS application bundle segment. An executable path
// like /Applications/Safari.app/Contents/MacOS/Safari identifies the
// application "Safari".
const bundleMarker = ".app/"

// AppName returns the normalized application identity for a process given
// its executable path and raw process name. Either argument may be empty;
// if both are, Unknown is returned.
func AppName(exePath, procName string) string {
	if idx := strings.Index(exePath, bundleMarker); idx >= 0 {
		bundle := filepath.Base(exePath[:idx+len(".app")])
		return strings.TrimSuffix(bundle, ".app")
	}

	name := procName
	if name == "" && exePath != "" {
		name = filepath.Base(exePath)
	}
	if name == "" {
		return Unknown
	}

	if strings.HasSuffix(strings.ToLower(name), ".exe") {
		name = name[:len(name)-len(".exe")]
	}
	if name == "" {
		return Unknown
	}
	return name
}
