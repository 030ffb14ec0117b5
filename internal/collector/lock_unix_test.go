//go:build unix

package collector

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/blackwell-systems/apptraffic/internal/model"
)

func TestAcquire_ExcludesSecondHolder(t *testing.T) {
	f := NewPIDFile(filepath.Join(t.TempDir(), "test.pid"))

	release, err := f.Acquire()
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	// flock conflicts across open file descriptions, so a second Acquire
	// models a second collector process racing for the singleton.
	if release2, err := f.Acquire(); err == nil {
		release2()
		t.Error("second Acquire() succeeded, want lock conflict")
	}

	release()

	release3, err := f.Acquire()
	if err != nil {
		t.Fatalf("Acquire() after release failed: %v", err)
	}
	release3()
}

func TestRun_SecondInstanceRefused(t *testing.T) {
	snaps := &fakeSnapshotter{snaps: []*model.Snapshot{
		{TakenAt: time.Now(), ConnsByApp: map[string]int{}},
	}}
	sup, _ := newTestSupervisor(t, snaps)

	release, err := sup.pidFile.Acquire()
	if err != nil {
		t.Fatalf("holding lock: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sup.Run(ctx); err == nil {
		t.Error("Run() succeeded while another instance holds the lock")
	}
}
