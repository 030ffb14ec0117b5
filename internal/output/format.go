// Package output provides terminal output utilities for apptraffic:
// usage tables, human-readable byte/rate formatting and a spinner for
// daemon start/stop. Tables use ASCII plus ANSI color codes gated on TTY
// detection.
package output

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// ANSI color codes.
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not
// set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// FormatBytes converts a byte count to a human-readable string.
func FormatBytes(b float64) string {
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if b < 1024 {
			return fmt.Sprintf("%.2f %s", b, unit)
		}
		b /= 1024
	}
	return fmt.Sprintf("%.2f PB", b)
}

// FormatRate converts a bytes-per-second value to a human-readable
// throughput string.
func FormatRate(bps float64) string {
	for _, unit := range []string{"B/s", "KB/s", "MB/s", "GB/s"} {
		if bps < 1024 {
			return fmt.Sprintf("%.2f %s", bps, unit)
		}
		bps /= 1024
	}
	return fmt.Sprintf("%.2f TB/s", bps)
}

// FormatDuration renders a duration as a coarse human-readable age.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return s[:maxLen]
	}
	return s[:maxLen-1] + "…"
}
