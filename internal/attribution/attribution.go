// Package attribution turns a pair of consecutive snapshots into
// per-application usage.
//
// The host OS exposes system-wide byte counters and per-process connection
// tables, but no per-connection byte accounting. The engine therefore
// splits the system-wide delta across applications in proportion to each
// application's share of open connections. This is a heuristic: it assumes
// traffic correlates with connection count, which is wrong for bursty
// single-connection transfers. It is an accepted modeling approximation,
// not a bug to fix.
package attribution

import (
	"github.com/blackwell-systems/apptraffic/internal/model"
)

// Attribute distributes the byte delta between prev and curr across the
// applications observed in curr.
//
// When prev is nil (first tick) or no wall time has elapsed, the rate is
// undefined and only connection counts are returned. Negative deltas
// (counter wraparound, interface reset) are clamped to zero before the
// split so no negative value can reach the store. When curr has no visible
// connections at all, the entire delta lands in the model.SystemApp bucket.
//
// The proportional split guarantees that the attributed bytes sum to the
// clamped delta (shares sum to 1), so one tick can never account for more
// traffic than the system counters reported.
func Attribute(prev, curr *model.Snapshot) map[string]model.Usage {
	usage := make(map[string]model.Usage, len(curr.ConnsByApp))
	for app, conns := range curr.ConnsByApp {
		usage[app] = model.Usage{Connections: conns}
	}

	if prev == nil || !curr.TakenAt.After(prev.TakenAt) {
		return usage
	}

	sentDelta := counterDelta(curr.BytesSent, prev.BytesSent)
	recvDelta := counterDelta(curr.BytesRecv, prev.BytesRecv)

	total := curr.TotalConnections()
	if total == 0 {
		u := usage[model.SystemApp]
		u.Sent = sentDelta
		u.Recv = recvDelta
		usage[model.SystemApp] = u
		return usage
	}

	for app, u := range usage {
		share := float64(u.Connections) / float64(total)
		u.Sent = sentDelta * share
		u.Recv = recvDelta * share
		usage[app] = u
	}
	return usage
}

// Rates converts raw per-interval deltas into bytes-per-second throughput
// for live display. elapsedSeconds <= 0 yields zero rates.
func Rates(usage map[string]model.Usage, elapsedSeconds float64) map[string]model.Usage {
	rates := make(map[string]model.Usage, len(usage))
	for app, u := range usage {
		if elapsedSeconds > 0 {
			u.Sent /= elapsedSeconds
			u.Recv /= elapsedSeconds
		} else {
			u.Sent = 0
			u.Recv = 0
		}
		rates[app] = u
	}
	return rates
}

// counterDelta returns curr-prev clamped at zero. Cumulative OS counters
// can go backwards on reset or wraparound; a negative delta is meaningless
// and must never be attributed or stored.
func counterDelta(curr, prev uint64) float64 {
	if curr < prev {
		return 0
	}
	return float64(curr - prev)
}
