package app

import (
	"testing"
	"time"
)

func TestParseTimeSpec_RFC3339(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	got, err := parseTimeSpec("2026-08-29T14:00:00Z", now)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseTimeSpec_Date(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	got, err := parseTimeSpec("2026-08-29", now)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := time.Date(2026, 8, 29, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("expected local midnight %v, got %v", want, got)
	}
}

func TestParseTimeSpec_DurationAgo(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	got, err := parseTimeSpec("36h", now)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := now.Add(-36 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseTimeSpec_Invalid(t *testing.T) {
	now := time.Now()
	for _, spec := range []string{"yesterday", "", "-5h", "0s", "08/29/2026"} {
		if _, err := parseTimeSpec(spec, now); err == nil {
			t.Errorf("expected error for %q", spec)
		}
	}
}
