package app

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/apptraffic/internal/store"
)

var (
	cleanupDays int

	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Delete usage records older than the retention window",
		Long: `Delete usage records older than the retention window.

The collector runs this sweep automatically on a schedule; the command
exists for running it by hand, for example after shrinking the
retention window.`,
		Example: `  # Apply the configured retention (default 90 days)
  apptraffic cleanup

  # Keep only the last 30 days
  apptraffic cleanup --days 30`,
		RunE: runCleanup,
	}
)

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "retention window in days (default from config)")

	RootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	days := cleanupDays
	if days == 0 {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		days = cfg.Collector.RetentionDays
	}
	if days <= 0 {
		return fmt.Errorf("invalid retention: %d days (must be positive)", days)
	}

	path, readOnly, err := resolveStorePath()
	if err != nil {
		return err
	}
	if readOnly {
		return fmt.Errorf("database %s belongs to the system collector; run as root to clean it up", path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("No usage data recorded yet (looked for %s).\n", path)
		return nil
	}

	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", path, err)
	}
	defer st.Close()

	deleted, err := st.Cleanup(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		return fmt.Errorf("cleaning up records older than %d days: %w", days, err)
	}
	fmt.Printf("Deleted %d records older than %d days\n", deleted, days)
	return nil
}
