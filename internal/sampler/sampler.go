// Package sampler takes point-in-time snapshots of system network state:
// the system-wide cumulative byte counters and a per-application tally of
// open connections.
package sampler

import (
	"context"
	"fmt"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/blackwell-systems/apptraffic/internal/model"
	"github.com/blackwell-systems/apptraffic/internal/procid"
)

// Sampler produces Snapshots from the OS process and connection tables.
// The collaborator functions default to gopsutil calls and can be swapped
// in tests.
type Sampler struct {
	ioCounters  func(ctx context.Context) ([]gnet.IOCountersStat, error)
	connections func(ctx context.Context) ([]gnet.ConnectionStat, error)
	resolvePID  func(ctx context.Context, pid int32) string
}

// New returns a Sampler backed by the live OS tables.
func New() *Sampler {
	return &Sampler{
		ioCounters: func(ctx context.Context) ([]gnet.IOCountersStat, error) {
			return gnet.IOCountersWithContext(ctx, false)
		},
		connections: func(ctx context.Context) ([]gnet.ConnectionStat, error) {
			return gnet.ConnectionsWithContext(ctx, "inet")
		},
		resolvePID: resolvePID,
	}
}

// Sample reads the counters and connection table once and returns a fresh
// Snapshot.
//
// Connection enumeration being denied (common without elevation) degrades
// to an empty connection map rather than an error, so live and historical
// views keep working on the System fallback bucket. Individual processes
// vanishing between enumeration and inspection resolve to the Unknown
// identity. Only a failure to read the global byte counters is an error:
// without them there is no snapshot at all.
func (s *Sampler) Sample(ctx context.Context) (*model.Snapshot, error) {
	counters, err := s.ioCounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading network counters: %w", err)
	}

	snap := &model.Snapshot{
		TakenAt:    time.Now(),
		ConnsByApp: make(map[string]int),
	}
	for _, c := range counters {
		snap.BytesSent += c.BytesSent
		snap.BytesRecv += c.BytesRecv
	}

	conns, err := s.connections(ctx)
	if err != nil {
		// Unprivileged runs are routinely denied the connection table.
		return snap, nil
	}

	pidConns := make(map[int32]int)
	for _, c := range conns {
		if c.Pid <= 0 {
			continue
		}
		pidConns[c.Pid]++
	}

	for pid, n := range pidConns {
		app := s.resolvePID(ctx, pid)
		snap.ConnsByApp[app] += n
	}
	return snap, nil
}

// resolvePID maps a live PID to an application identity. Any failure along
// the way (process exited, access denied) resolves to procid.Unknown.
func resolvePID(ctx context.Context, pid int32) string {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return procid.Unknown
	}
	exe, _ := p.ExeWithContext(ctx)
	name, _ := p.NameWithContext(ctx)
	return procid.AppName(exe, name)
}
