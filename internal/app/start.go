package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/apptraffic/internal/collector"
	"github.com/blackwell-systems/apptraffic/internal/output"
	"github.com/blackwell-systems/apptraffic/internal/platform"
	"github.com/blackwell-systems/apptraffic/internal/sampler"
	"github.com/blackwell-systems/apptraffic/internal/store"
)

var (
	startInterval   string
	startForeground bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the network usage collector",
		Long: `Start the background collector that samples per-application network
usage and records it to the local database.

The collector runs as a detached background process and keeps running
after the terminal closes. Stop it with 'apptraffic stop'.

Run as root (or Administrator) to share one system-wide database between
all users; otherwise usage is recorded to a per-user database.`,
		Example: `  # Start the collector
  apptraffic start

  # Sample every 10 seconds instead of the default
  apptraffic start --interval 10s`,
		RunE: runStart,
	}
)

func init() {
	startCmd.Flags().StringVar(&startInterval, "interval", "", "sampling interval (default from config, 60s)")
	startCmd.Flags().BoolVar(&startForeground, "foreground", false, "run the collector in this process")
	startCmd.Flags().MarkHidden("foreground")

	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	if startForeground {
		return runCollector()
	}

	candidates, err := pidCandidates()
	if err != nil {
		return err
	}
	if _, pid, ok := collector.FindLive(candidates); ok {
		fmt.Printf("Collector already running (PID %d)\n", pid)
		return nil
	}

	paths, err := platform.Default()
	if err != nil {
		return err
	}
	if _, err := paths.DataDir(); err != nil {
		return err
	}

	pidPath, err := ownPIDPath()
	if err != nil {
		return err
	}
	pidFile := collector.NewPIDFile(pidPath)
	logPath := paths.LogPath()

	spinner := output.NewSpinner("Starting collector...")
	spinner.Start()
	if err := collector.StartDaemon(pidFile, logPath, forwardedFlags()); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start collector: %w", err)
	}
	spinner.StopWithMessage("✓ Collector started")

	fmt.Printf("\n  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)
	fmt.Printf("\nTo stop: apptraffic stop\n")
	return nil
}

// forwardedFlags reconstructs the flags the daemon child must inherit.
// The child is a fresh process, so anything not passed here falls back to
// config-file defaults and would silently diverge from what the caller
// asked for.
func forwardedFlags() []string {
	var args []string
	if startInterval != "" {
		args = append(args, "--interval", startInterval)
	}
	if dbPath != "" {
		args = append(args, "--db", dbPath)
	}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}

// runCollector is the foreground collector entry, reached directly by the
// hidden flag or as the daemon child. Output goes to the log file when
// daemonized, so everything is logged through slog.
func runCollector() error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	if startInterval != "" {
		cfg.Collector.Interval = startInterval
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	path, readOnly, err := resolveStorePath()
	if err != nil {
		return err
	}
	if readOnly {
		return fmt.Errorf("database %s belongs to the system collector; run as root to collect, or use --db for a private database", path)
	}

	paths, err := platform.Default()
	if err != nil {
		return err
	}
	if dbPath == "" && cfg.Paths.DB == "" {
		if _, err := paths.DataDir(); err != nil {
			return err
		}
	}

	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", path, err)
	}
	defer st.Close()

	// A privileged collector leaves the store readable so unprivileged
	// report commands can query it.
	if err := paths.EnsureStoreReadable(path); err != nil {
		return err
	}

	pidPath, err := ownPIDPath()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sup, err := collector.New(st, sampler.New(), collector.NewPIDFile(pidPath), cfg, cfgPath, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return sup.Run(ctx)
}
