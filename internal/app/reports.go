package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/apptraffic/internal/model"
	"github.com/blackwell-systems/apptraffic/internal/output"
	"github.com/blackwell-systems/apptraffic/internal/store"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's network usage per application",
	Example: `  # Usage since local midnight
  apptraffic today`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport("today", (*store.Store).TodayStats)
	},
}

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show this week's network usage per application",
	Long: `Show network usage per application since the start of the current week
(Monday, local time).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport("this week", (*store.Store).WeekStats)
	},
}

var monthCmd = &cobra.Command{
	Use:   "month",
	Short: "Show this month's network usage per application",
	Long: `Show network usage per application since the first day of the current
month (local time).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport("this month", (*store.Store).MonthStats)
	},
}

func init() {
	RootCmd.AddCommand(todayCmd)
	RootCmd.AddCommand(weekCmd)
	RootCmd.AddCommand(monthCmd)
}

// runReport renders one aggregation window as a table. Reports only cover
// periods the collector was running, so an empty result suggests starting
// it rather than failing.
func runReport(window string, fetch func(*store.Store) (map[string]model.Totals, error)) error {
	st, ok, err := openQueryStore()
	if err != nil || !ok {
		return err
	}
	defer st.Close()

	totals, err := fetch(st)
	if err != nil {
		return fmt.Errorf("querying usage for %s: %w", window, err)
	}
	if len(totals) == 0 {
		fmt.Printf("No usage recorded %s.\n", window)
		fmt.Println("Reports only cover periods while the collector was running.")
		return nil
	}

	fmt.Printf("Network usage %s:\n\n", window)
	fmt.Print(output.RenderUsageTable(totals))
	return nil
}
