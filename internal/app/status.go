package app

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/apptraffic/internal/collector"
	"github.com/blackwell-systems/apptraffic/internal/output"
	"github.com/blackwell-systems/apptraffic/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check collector status and database statistics",
	Long: `Display the current status of the collector and the usage database.

Shows:
  • Collector running status and PID
  • Database location and size
  • Number of recorded samples
  • How far back the data reaches

This command helps verify that usage tracking is working correctly.`,
	Example: `  # Check status
  apptraffic status`,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	candidates, err := pidCandidates()
	if err != nil {
		return err
	}

	if _, pid, ok := collector.FindLive(candidates); ok {
		fmt.Printf("Collector: running (PID %d)\n", pid)
	} else {
		fmt.Println("Collector: not running")
	}

	path, readOnly, err := resolveStorePath()
	if err != nil {
		return err
	}
	fmt.Printf("Database:  %s", path)
	if readOnly {
		fmt.Print(" (read-only, owned by the system collector)")
	}
	fmt.Println()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("\nNo usage data recorded yet.")
		fmt.Println("Start the collector with 'apptraffic start'.")
		return nil
	}

	st, err := store.OpenReadOnly(path)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", path, err)
	}
	defer st.Close()

	rows, err := st.RowCount()
	if err != nil {
		return fmt.Errorf("reading database statistics: %w", err)
	}
	fmt.Printf("Size:      %s\n", output.FormatBytes(float64(st.Size())))
	fmt.Printf("Samples:   %d\n", rows)

	oldest, err := st.OldestRecord()
	if err != nil {
		return fmt.Errorf("reading database statistics: %w", err)
	}
	if !oldest.IsZero() {
		fmt.Printf("Tracking:  since %s (%s)\n",
			oldest.Local().Format("2006-01-02 15:04:05"),
			output.FormatDuration(time.Since(oldest)))
	}
	return nil
}
