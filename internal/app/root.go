package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/apptraffic/internal/config"
	"github.com/blackwell-systems/apptraffic/internal/platform"
	"github.com/blackwell-systems/apptraffic/internal/store"
)

var (
	dbPath     string
	configPath string

	// RootCmd is the root command for apptraffic
	RootCmd = &cobra.Command{
		Use:   "apptraffic",
		Short: "Per-application network usage tracking and access control",
		Long: `apptraffic tracks how much network traffic each application on this
machine sends and receives, stores it in a local SQLite database, and
lets you block individual applications from the network.

IMPORTANT: You must run 'apptraffic start' to collect usage data.
Reports only cover periods while the collector was running.

Quick Start:
  1. apptraffic start       # launch the background collector
  2. apptraffic live        # watch per-app traffic in real time
  3. apptraffic today       # daily usage report

Features:
  • Per-application upload/download attribution
  • Daily, weekly, monthly and custom-range reports
  • Live terminal dashboard
  • Per-app firewall blocking via OS tools
  • Automatic retention cleanup`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := resolveStorePath()
			if err != nil {
				return err
			}
			fmt.Println("apptraffic: per-application network usage tracking")
			fmt.Println()
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Println("Run 'apptraffic start' to begin collecting usage data.")
				fmt.Println("Run 'apptraffic --help' for the full reference.")
			} else {
				fmt.Println("Tip: Run 'apptraffic status' to check the collector.")
				fmt.Println("     Run 'apptraffic today' for today's usage.")
				fmt.Println("     Run 'apptraffic --help' for all commands.")
			}
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: platform data dir)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: platform data dir)")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the config file named by --config or the platform
// default location. A missing file yields defaults.
func loadConfig() (*config.Config, string, error) {
	paths, err := platform.Default()
	if err != nil {
		return nil, "", err
	}
	path := configPath
	if path == "" {
		path = paths.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, path, nil
}

// resolveStorePath returns the database path, honoring the --db flag, then
// the config file, then the platform policy. readOnly reports whether this
// process should treat the store as read-only (another user's collector
// owns it).
func resolveStorePath() (path string, readOnly bool, err error) {
	if dbPath != "" {
		return dbPath, false, nil
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return "", false, err
	}
	if cfg.Paths.DB != "" {
		return cfg.Paths.DB, false, nil
	}
	paths, err := platform.Default()
	if err != nil {
		return "", false, err
	}
	path, readOnly = paths.StorePath()
	return path, readOnly, nil
}

// openQueryStore opens the store read-only for report commands. A missing
// database is reported with a remedy rather than a bare open error; the
// returned bool is false when there is no store to query.
func openQueryStore() (*store.Store, bool, error) {
	path, _, err := resolveStorePath()
	if err != nil {
		return nil, false, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("No usage data recorded yet (looked for %s).\n", path)
		fmt.Println("Start the collector with 'apptraffic start'.")
		return nil, false, nil
	}
	st, err := store.OpenReadOnly(path)
	if err != nil {
		return nil, false, fmt.Errorf("opening database %s: %w", path, err)
	}
	return st, true, nil
}

// pidCandidates returns the PID marker paths to probe, honoring a config
// override before the platform candidates.
func pidCandidates() ([]string, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Paths.PID != "" {
		return []string{cfg.Paths.PID}, nil
	}
	paths, err := platform.Default()
	if err != nil {
		return nil, err
	}
	return paths.PIDCandidates(), nil
}

// ownPIDPath is where this process writes its own marker when it runs the
// collector.
func ownPIDPath() (string, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Paths.PID != "" {
		return cfg.Paths.PID, nil
	}
	paths, err := platform.Default()
	if err != nil {
		return "", err
	}
	return paths.PIDPath(), nil
}
