// Package model holds the value types shared by the sampler, the
// attribution engine and the store.
package model

import "time"

// SystemApp is the bucket that receives the whole byte delta when no
// per-process connection visibility exists (typically an unprivileged run).
// Attributing to a sentinel instead of dropping keeps aggregate traffic
// visible in every view.
const SystemApp = "System"

// Snapshot is one point-in-time reading of the system-wide cumulative
// network counters plus per-application open-connection counts. Snapshots
// are immutable; the collector keeps only the most recent one to compute
// the next delta.
type Snapshot struct {
	BytesSent  uint64
	BytesRecv  uint64
	TakenAt    time.Time
	ConnsByApp map[string]int
}

// TotalConnections returns the sum of per-application connection counts.
func (s *Snapshot) TotalConnections() int {
	total := 0
	for _, n := range s.ConnsByApp {
		total += n
	}
	return total
}

// Usage is one application's share of a sampling interval: attributed byte
// deltas plus the observed open-connection count. Sent/Recv are raw deltas
// for the interval, not rates; divide by the elapsed seconds for display.
type Usage struct {
	Sent        float64
	Recv        float64
	Connections int
}

// Active reports whether the entry carries any signal worth persisting.
func (u Usage) Active() bool {
	return u.Sent > 0 || u.Recv > 0 || u.Connections > 0
}

// Totals is an aggregated store row for one application over a query
// window: summed bytes and the maximum connection count seen in any single
// tick.
type Totals struct {
	Sent        int64
	Recv        int64
	Connections int
}
