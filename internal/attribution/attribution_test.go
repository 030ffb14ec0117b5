package attribution

import (
	"math"
	"testing"
	"time"

	"github.com/blackwell-systems/apptraffic/internal/model"
)

func snap(at time.Time, sent, recv uint64, conns map[string]int) *model.Snapshot {
	return &model.Snapshot{
		BytesSent:  sent,
		BytesRecv:  recv,
		TakenAt:    at,
		ConnsByApp: conns,
	}
}

func TestAttribute_FirstTickHasNoBytes(t *testing.T) {
	now := time.Now()
	curr := snap(now, 5000, 9000, map[string]int{"Chrome": 4, "Slack": 2})

	usage := Attribute(nil, curr)

	if len(usage) != 2 {
		t.Fatalf("Attribute() returned %d apps, want 2", len(usage))
	}
	for app, u := range usage {
		if u.Sent != 0 || u.Recv != 0 {
			t.Errorf("app %s has bytes %v/%v on first tick, want 0/0", app, u.Sent, u.Recv)
		}
	}
	if usage["Chrome"].Connections != 4 {
		t.Errorf("Chrome connections = %d, want 4", usage["Chrome"].Connections)
	}
}

func TestAttribute_ZeroElapsedHasNoBytes(t *testing.T) {
	now := time.Now()
	prev := snap(now, 1000, 1000, nil)
	curr := snap(now, 2000, 2000, map[string]int{"Chrome": 1})

	usage := Attribute(prev, curr)

	if u := usage["Chrome"]; u.Sent != 0 || u.Recv != 0 {
		t.Errorf("zero elapsed attributed bytes %v/%v, want 0/0", u.Sent, u.Recv)
	}
}

func TestAttribute_ProportionalSplitSumsToDelta(t *testing.T) {
	now := time.Now()
	prev := snap(now, 10_000, 20_000, nil)
	curr := snap(now.Add(60*time.Second), 13_000, 29_000,
		map[string]int{"Chrome": 5, "Slack": 3, "Spotify": 2})

	usage := Attribute(prev, curr)

	var sumSent, sumRecv float64
	for _, u := range usage {
		if u.Sent < 0 || u.Recv < 0 {
			t.Fatalf("negative attribution: %+v", u)
		}
		sumSent += u.Sent
		sumRecv += u.Recv
	}
	if math.Abs(sumSent-3000) > 1e-6 {
		t.Errorf("sum of attributed sent = %v, want 3000", sumSent)
	}
	if math.Abs(sumRecv-9000) > 1e-6 {
		t.Errorf("sum of attributed recv = %v, want 9000", sumRecv)
	}

	// Shares follow connection counts: Chrome holds 5 of 10 connections.
	if got := usage["Chrome"].Sent; math.Abs(got-1500) > 1e-6 {
		t.Errorf("Chrome sent = %v, want 1500", got)
	}
}

func TestAttribute_ZeroConnectionFallbackToSystem(t *testing.T) {
	now := time.Now()
	prev := snap(now, 0, 0, nil)
	curr := snap(now.Add(time.Minute), 4096, 8192, map[string]int{})

	usage := Attribute(prev, curr)

	sys, ok := usage[model.SystemApp]
	if !ok {
		t.Fatal("System bucket missing from zero-connection attribution")
	}
	if sys.Sent != 4096 || sys.Recv != 8192 {
		t.Errorf("System bucket = %v/%v, want 4096/8192", sys.Sent, sys.Recv)
	}
	for app, u := range usage {
		if app == model.SystemApp {
			continue
		}
		if u.Sent != 0 || u.Recv != 0 {
			t.Errorf("app %s received bytes in zero-connection fallback", app)
		}
	}
}

func TestAttribute_NegativeDeltaClampsToZero(t *testing.T) {
	now := time.Now()
	// Simulated counter reset: curr counters below prev.
	prev := snap(now, 1_000_000, 2_000_000, nil)
	curr := snap(now.Add(time.Minute), 500, 900, map[string]int{"Chrome": 3, "Slack": 1})

	usage := Attribute(prev, curr)

	for app, u := range usage {
		if u.Sent != 0 {
			t.Errorf("app %s sent = %v after counter reset, want 0", app, u.Sent)
		}
		if u.Recv != 0 {
			t.Errorf("app %s recv = %v after counter reset, want 0", app, u.Recv)
		}
	}
	// Connection counts survive the clamp.
	if usage["Chrome"].Connections != 3 {
		t.Errorf("Chrome connections = %d, want 3", usage["Chrome"].Connections)
	}
}

func TestAttribute_MixedResetClampsIndependently(t *testing.T) {
	now := time.Now()
	// Only the sent counter went backwards; recv still attributes.
	prev := snap(now, 9000, 1000, nil)
	curr := snap(now.Add(time.Minute), 100, 3000, map[string]int{"Zoom": 2})

	usage := Attribute(prev, curr)

	if u := usage["Zoom"]; u.Sent != 0 || u.Recv != 2000 {
		t.Errorf("Zoom = %v/%v, want 0/2000", u.Sent, u.Recv)
	}
}

func TestRates_DividesByElapsed(t *testing.T) {
	usage := map[string]model.Usage{
		"Chrome": {Sent: 6000, Recv: 12000, Connections: 4},
	}

	rates := Rates(usage, 60)

	if r := rates["Chrome"]; r.Sent != 100 || r.Recv != 200 {
		t.Errorf("Rates() = %v/%v, want 100/200", r.Sent, r.Recv)
	}
	if rates["Chrome"].Connections != 4 {
		t.Errorf("Rates() dropped connection count")
	}
}

func TestRates_NonPositiveElapsedZeroes(t *testing.T) {
	usage := map[string]model.Usage{"Chrome": {Sent: 500, Recv: 500}}

	rates := Rates(usage, 0)

	if r := rates["Chrome"]; r.Sent != 0 || r.Recv != 0 {
		t.Errorf("Rates() with zero elapsed = %v/%v, want 0/0", r.Sent, r.Recv)
	}
}
