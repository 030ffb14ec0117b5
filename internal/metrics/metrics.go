// Package metrics provides Prometheus metrics for the collector.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Tick loop metrics.
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "apptraffic",
		Subsystem: "collector",
		Name:      "ticks_total",
		Help:      "Total number of sampling ticks completed.",
	})
	TickErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "apptraffic",
		Subsystem: "collector",
		Name:      "tick_errors_total",
		Help:      "Total number of sampling ticks that failed and were skipped.",
	})
	AttributedBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apptraffic",
		Subsystem: "collector",
		Name:      "attributed_bytes_total",
		Help:      "Total bytes attributed to applications.",
	}, []string{"direction"}) // "sent" or "recv"
	ActiveApps = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "apptraffic",
		Subsystem: "collector",
		Name:      "active_apps",
		Help:      "Number of applications with activity in the last tick.",
	})

	// Store metrics.
	RowsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "apptraffic",
		Subsystem: "store",
		Name:      "rows_deleted_total",
		Help:      "Total rows removed by retention cleanup sweeps.",
	})
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		TickErrorsTotal,
		AttributedBytesTotal,
		ActiveApps,
		RowsDeletedTotal,
	)
}
