package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/apptraffic/internal/model"
)

// AppTotals pairs an application with its aggregated usage for rendering.
type AppTotals struct {
	App    string
	Totals model.Totals
}

// SortByTraffic flattens a totals map into a slice ordered by total
// traffic (sent+recv) descending, ties broken by name for stable output.
func SortByTraffic(totals map[string]model.Totals) []AppTotals {
	rows := make([]AppTotals, 0, len(totals))
	for app, t := range totals {
		rows = append(rows, AppTotals{App: app, Totals: t})
	}
	sort.Slice(rows, func(i, j int) bool {
		ti := rows[i].Totals.Sent + rows[i].Totals.Recv
		tj := rows[j].Totals.Sent + rows[j].Totals.Recv
		if ti != tj {
			return ti > tj
		}
		return rows[i].App < rows[j].App
	})
	return rows
}

// RenderUsageTable renders historical totals ordered by total traffic,
// with a TOTAL footer row.
func RenderUsageTable(totals map[string]model.Totals) string {
	if len(totals) == 0 {
		return "No data available for this period.\nMake sure the collector is running: apptraffic start\n"
	}

	rows := SortByTraffic(totals)

	var sb strings.Builder
	sb.WriteString(colorize(colorBold, fmt.Sprintf("%-35s %-15s %-15s %-15s\n",
		"Application", "Upload", "Download", "Total")))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	var totalSent, totalRecv int64
	for _, row := range rows {
		t := row.Totals
		sb.WriteString(fmt.Sprintf("%-35s %-15s %-15s %-15s\n",
			truncate(row.App, 35),
			FormatBytes(float64(t.Sent)),
			FormatBytes(float64(t.Recv)),
			FormatBytes(float64(t.Sent+t.Recv))))
		totalSent += t.Sent
		totalRecv += t.Recv
	}

	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")
	sb.WriteString(colorize(colorBold, fmt.Sprintf("%-35s %-15s %-15s %-15s\n",
		"TOTAL",
		FormatBytes(float64(totalSent)),
		FormatBytes(float64(totalRecv)),
		FormatBytes(float64(totalSent+totalRecv)))))
	return sb.String()
}

// RenderRateTable renders live per-app rates ordered by total throughput.
// Idle apps (no connections, no traffic) are hidden.
func RenderRateTable(rates map[string]model.Usage) string {
	type row struct {
		app string
		u   model.Usage
	}
	rows := make([]row, 0, len(rates))
	for app, u := range rates {
		if !u.Active() {
			continue
		}
		rows = append(rows, row{app, u})
	}
	if len(rows) == 0 {
		return "No active network connections found.\n"
	}
	sort.Slice(rows, func(i, j int) bool {
		ti := rows[i].u.Sent + rows[i].u.Recv
		tj := rows[j].u.Sent + rows[j].u.Recv
		if ti != tj {
			return ti > tj
		}
		return rows[i].app < rows[j].app
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-30s %-15s %-15s %-12s\n",
		"Application", "Upload", "Download", "Connections"))
	sb.WriteString(strings.Repeat("-", 72))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-30s %-15s %-15s %-12d\n",
			truncate(r.app, 30),
			FormatRate(r.u.Sent),
			FormatRate(r.u.Recv),
			r.u.Connections))
	}
	return sb.String()
}
