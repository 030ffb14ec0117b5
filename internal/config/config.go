// Package config provides configuration loading for apptraffic.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration. Every field
// has a working default; the file is optional.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Live      LiveConfig      `yaml:"live"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Paths     PathsConfig     `yaml:"paths"`
}

// CollectorConfig controls the background collector.
type CollectorConfig struct {
	// Interval between sampling ticks, as a Go duration string.
	Interval string `yaml:"interval"`
	// RetentionDays is how long usage rows are kept before the scheduled
	// cleanup sweep removes them.
	RetentionDays int `yaml:"retention_days"`
	// CleanupCron schedules the retention sweep (6-field cron with
	// seconds).
	CleanupCron string `yaml:"cleanup_cron"`
}

// IntervalParsed returns the parsed sampling interval.
func (c *CollectorConfig) IntervalParsed() (time.Duration, error) {
	return time.ParseDuration(c.Interval)
}

// Retention returns the row retention window as a duration.
func (c *CollectorConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// LiveConfig controls the live view refresh.
type LiveConfig struct {
	Interval string `yaml:"interval"`
}

// IntervalParsed returns the parsed live refresh interval.
func (l *LiveConfig) IntervalParsed() (time.Duration, error) {
	return time.ParseDuration(l.Interval)
}

// MetricsConfig controls the optional Prometheus endpoint of the
// collector. Empty listen address disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// PathsConfig overrides the platform-resolved file locations.
type PathsConfig struct {
	DB  string `yaml:"db"`
	PID string `yaml:"pid"`
}

// Load reads and parses the configuration file. A missing file is not an
// error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults sets default values for any unset configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Collector.Interval == "" {
		cfg.Collector.Interval = "60s"
	}
	if cfg.Collector.RetentionDays == 0 {
		cfg.Collector.RetentionDays = 90
	}
	if cfg.Collector.CleanupCron == "" {
		cfg.Collector.CleanupCron = "0 0 3 * * *" // daily at 03:00
	}
	if cfg.Live.Interval == "" {
		cfg.Live.Interval = "2s"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []string

	if d, err := c.Collector.IntervalParsed(); err != nil {
		errs = append(errs, fmt.Sprintf("collector.interval is invalid: %v", err))
	} else if d < time.Second {
		errs = append(errs, "collector.interval must be at least 1s")
	}

	if c.Collector.RetentionDays < 1 {
		errs = append(errs, "collector.retention_days must be at least 1")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.Collector.CleanupCron); err != nil {
		errs = append(errs, fmt.Sprintf("collector.cleanup_cron is invalid: %v", err))
	}

	if d, err := c.Live.IntervalParsed(); err != nil {
		errs = append(errs, fmt.Sprintf("live.interval is invalid: %v", err))
	} else if d < 500*time.Millisecond {
		errs = append(errs, "live.interval must be at least 500ms")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
