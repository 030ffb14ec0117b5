package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/apptraffic/internal/collector"
	"github.com/blackwell-systems/apptraffic/internal/output"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running collector",
	Long: `Stop the background collector.

Stopping an already-stopped collector is not an error. A stale PID
marker left behind by a crash is cleaned up automatically.`,
	Example: `  # Stop the collector
  apptraffic stop`,
	RunE: runStop,
}

func init() {
	RootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	candidates, err := pidCandidates()
	if err != nil {
		return err
	}

	spinner := output.NewSpinner("Stopping collector...")
	spinner.Start()
	stopped, err := collector.StopDaemon(candidates)
	if err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop collector: %w", err)
	}
	if !stopped {
		spinner.Stop()
		fmt.Println("Collector is not running")
		return nil
	}
	spinner.StopWithMessage("✓ Collector stopped")
	return nil
}
