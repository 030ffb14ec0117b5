package app

import (
	"strings"
	"testing"
)

func TestForwardedFlags_CarriesCallerFlags(t *testing.T) {
	startInterval = "10s"
	dbPath = "/tmp/custom.db"
	configPath = "/tmp/custom.yaml"
	defer func() {
		startInterval = ""
		dbPath = ""
		configPath = ""
	}()

	got := strings.Join(forwardedFlags(), " ")
	want := "--interval 10s --db /tmp/custom.db --config /tmp/custom.yaml"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestForwardedFlags_EmptyWhenUnset(t *testing.T) {
	if args := forwardedFlags(); len(args) != 0 {
		t.Errorf("expected no forwarded flags, got %v", args)
	}
}
