package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/apptraffic/internal/output"
)

var sinceCmd = &cobra.Command{
	Use:   "since <time>",
	Short: "Show network usage since a point in time",
	Long: `Show network usage per application since a point in time.

The time argument accepts:
  • an RFC 3339 timestamp:  2026-08-29T14:00:00Z
  • a local date:           2026-08-29
  • a duration ago:         36h, 90m, 45s`,
	Example: `  # Usage in the last 36 hours
  apptraffic since 36h

  # Usage since a specific date
  apptraffic since 2026-08-01`,
	Args: cobra.ExactArgs(1),
	RunE: runSince,
}

func init() {
	RootCmd.AddCommand(sinceCmd)
}

func runSince(cmd *cobra.Command, args []string) error {
	// Reject a bad timespec before touching the database.
	start, err := parseTimeSpec(args[0], time.Now())
	if err != nil {
		return err
	}

	st, ok, err := openQueryStore()
	if err != nil || !ok {
		return err
	}
	defer st.Close()

	totals, err := st.StatsSince(start)
	if err != nil {
		return fmt.Errorf("querying usage since %s: %w", start.Format(time.RFC3339), err)
	}
	if len(totals) == 0 {
		fmt.Printf("No usage recorded since %s.\n", start.Local().Format("2006-01-02 15:04:05"))
		fmt.Println("Reports only cover periods while the collector was running.")
		return nil
	}

	fmt.Printf("Network usage since %s:\n\n", start.Local().Format("2006-01-02 15:04:05"))
	fmt.Print(output.RenderUsageTable(totals))
	return nil
}

// parseTimeSpec resolves the since argument to an absolute start time.
// Durations are interpreted relative to now; bare dates are local midnight.
func parseTimeSpec(spec string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", spec, time.Local); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return time.Time{}, fmt.Errorf("invalid time %q: duration must be positive", spec)
		}
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use an RFC 3339 timestamp, a date (2006-01-02), or a duration (36h)", spec)
}
