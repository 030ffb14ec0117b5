package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/apptraffic/internal/attribution"
	"github.com/blackwell-systems/apptraffic/internal/model"
	"github.com/blackwell-systems/apptraffic/internal/output"
	"github.com/blackwell-systems/apptraffic/internal/sampler"
)

// historySize bounds the sparkline windows.
const historySize = 90

var (
	liveInterval string

	liveCmd = &cobra.Command{
		Use:   "live",
		Short: "Live per-application traffic dashboard",
		Long: `Show a live terminal dashboard of per-application network traffic.

The top pane lists applications by current throughput; the bottom panes
chart total upload and download trends. Press q or Ctrl+C to quit.

The dashboard samples directly and does not need the collector to be
running, but nothing shown here is recorded.`,
		Example: `  # Watch live traffic
  apptraffic live

  # Refresh every second
  apptraffic live --interval 1s`,
		RunE: runLive,
	}
)

func init() {
	liveCmd.Flags().StringVar(&liveInterval, "interval", "", "refresh interval (default from config, 2s)")

	RootCmd.AddCommand(liveCmd)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if liveInterval != "" {
		cfg.Live.Interval = liveInterval
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	interval, err := cfg.Live.IntervalParsed()
	if err != nil {
		return err
	}

	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to init terminal UI: %w", err)
	}
	defer ui.Close()

	table := widgets.NewTable()
	table.Title = " Live traffic by application "
	table.Rows = [][]string{{"Application", "Upload", "Download", "Conns"}}
	table.TextStyle = ui.NewStyle(ui.ColorWhite)
	table.RowSeparator = false
	table.BorderStyle.Fg = ui.ColorGreen

	slUp := widgets.NewSparkline()
	slUp.LineColor = ui.ColorYellow
	sgUp := widgets.NewSparklineGroup(slUp)
	sgUp.Title = " Upload "
	sgUp.BorderStyle.Fg = ui.ColorYellow

	slDown := widgets.NewSparkline()
	slDown.LineColor = ui.ColorGreen
	sgDown := widgets.NewSparklineGroup(slDown)
	sgDown.Title = " Download "
	sgDown.BorderStyle.Fg = ui.ColorGreen

	grid := ui.NewGrid()
	termWidth, termHeight := ui.TerminalDimensions()
	grid.SetRect(0, 0, termWidth, termHeight)
	grid.Set(
		ui.NewRow(0.65, ui.NewCol(1.0, table)),
		ui.NewRow(0.35,
			ui.NewCol(0.5, sgUp),
			ui.NewCol(0.5, sgDown),
		),
	)
	ui.Render(grid)

	smp := sampler.New()
	ctx := context.Background()

	var (
		prev        *model.Snapshot
		upHistory   []float64
		downHistory []float64
	)

	uiEvents := ui.PollEvents()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case e := <-uiEvents:
			if e.Type == ui.KeyboardEvent && (e.ID == "q" || e.ID == "<C-c>") {
				return nil
			}
			if e.Type == ui.ResizeEvent {
				payload := e.Payload.(ui.Resize)
				grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				ui.Render(grid)
			}
		case <-ticker.C:
			snap, err := smp.Sample(ctx)
			if err != nil {
				table.Title = fmt.Sprintf(" Live traffic (sample error: %v) ", err)
				ui.Render(grid)
				continue
			}

			usage := attribution.Attribute(prev, snap)
			elapsed := 0.0
			if prev != nil {
				elapsed = snap.TakenAt.Sub(prev.TakenAt).Seconds()
			}
			rates := attribution.Rates(usage, elapsed)
			prev = snap

			upHistory, downHistory = updateDashboard(table, slUp, sgUp, slDown, sgDown, rates, upHistory, downHistory)
			ui.Render(grid)
		}
	}
}

// updateDashboard refreshes the widgets from one tick's rates and returns
// the extended sparkline histories.
func updateDashboard(table *widgets.Table,
	slUp *widgets.Sparkline, sgUp *widgets.SparklineGroup,
	slDown *widgets.Sparkline, sgDown *widgets.SparklineGroup,
	rates map[string]model.Usage, upHistory, downHistory []float64) ([]float64, []float64) {

	type appRate struct {
		name string
		u    model.Usage
	}
	var active []appRate
	var totalUp, totalDown float64
	for name, u := range rates {
		totalUp += u.Sent
		totalDown += u.Recv
		if u.Active() {
			active = append(active, appRate{name, u})
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		ri := active[i].u.Sent + active[i].u.Recv
		rj := active[j].u.Sent + active[j].u.Recv
		if ri == rj {
			return active[i].name < active[j].name
		}
		return ri > rj
	})

	table.Rows = [][]string{{"Application", "Upload", "Download", "Conns"}}
	for _, a := range active {
		table.Rows = append(table.Rows, []string{
			a.name,
			output.FormatRate(a.u.Sent),
			output.FormatRate(a.u.Recv),
			fmt.Sprintf("%d", a.u.Connections),
		})
	}
	table.Title = fmt.Sprintf(" Live traffic: %d active | ▲ %s ▼ %s ",
		len(active), output.FormatRate(totalUp), output.FormatRate(totalDown))

	if len(upHistory) >= historySize {
		upHistory = upHistory[1:]
		downHistory = downHistory[1:]
	}
	upHistory = append(upHistory, totalUp)
	downHistory = append(downHistory, totalDown)

	maxUp, maxDown := 0.0, 0.0
	for _, v := range upHistory {
		if v > maxUp {
			maxUp = v
		}
	}
	for _, v := range downHistory {
		if v > maxDown {
			maxDown = v
		}
	}

	slUp.Data = upHistory
	slDown.Data = downHistory
	sgUp.Title = fmt.Sprintf(" Upload (now: %s | peak: %s) ",
		output.FormatRate(totalUp), output.FormatRate(maxUp))
	sgDown.Title = fmt.Sprintf(" Download (now: %s | peak: %s) ",
		output.FormatRate(totalDown), output.FormatRate(maxDown))

	return upHistory, downHistory
}
