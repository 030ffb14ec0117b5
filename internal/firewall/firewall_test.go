package firewall

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newTestManager returns a Manager that records commands instead of running
// them, pinned to linux so the expected commands are stable.
func newTestManager(t *testing.T) (*Manager, *[]string) {
	t.Helper()
	var calls []string
	m := New(t.TempDir())
	m.goos = "linux"
	m.run = func(name string, args ...string) ([]byte, error) {
		calls = append(calls, name+" "+strings.Join(args, " "))
		return nil, nil
	}
	return m, &calls
}

func writeFakeExe(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBlockByPath(t *testing.T) {
	m, calls := newTestManager(t)
	exe := writeFakeExe(t, "firefox")

	name, err := m.Block(exe)
	if err != nil {
		t.Fatalf("Block failed: %v", err)
	}
	if name != "firefox" {
		t.Errorf("expected app name firefox, got %q", name)
	}

	want := []string{
		"iptables -A OUTPUT -m owner --cmd-owner firefox -j DROP",
		"iptables -A INPUT -m owner --cmd-owner firefox -j DROP",
	}
	if len(*calls) != len(want) {
		t.Fatalf("expected %d commands, got %d: %v", len(want), len(*calls), *calls)
	}
	for i, c := range want {
		if (*calls)[i] != c {
			t.Errorf("command %d: expected %q, got %q", i, c, (*calls)[i])
		}
	}

	apps, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(apps) != 1 || apps[0].Name != "firefox" || apps[0].Path != exe {
		t.Errorf("unexpected blocklist: %+v", apps)
	}
}

func TestBlockMissingPathFails(t *testing.T) {
	m, calls := newTestManager(t)

	_, err := m.Block(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for nonexistent executable path")
	}
	if len(*calls) != 0 {
		t.Errorf("no commands should run when resolution fails, got %v", *calls)
	}
}

func TestUnblockRemovesRuleAndEntry(t *testing.T) {
	m, calls := newTestManager(t)
	exe := writeFakeExe(t, "spotify")

	if _, err := m.Block(exe); err != nil {
		t.Fatalf("Block failed: %v", err)
	}
	*calls = nil

	// Unblock by name is case-insensitive.
	name, err := m.Unblock("Spotify")
	if err != nil {
		t.Fatalf("Unblock failed: %v", err)
	}
	if name != "spotify" {
		t.Errorf("expected app name spotify, got %q", name)
	}

	want := []string{
		"iptables -D OUTPUT -m owner --cmd-owner spotify -j DROP",
		"iptables -D INPUT -m owner --cmd-owner spotify -j DROP",
	}
	for i, c := range want {
		if (*calls)[i] != c {
			t.Errorf("command %d: expected %q, got %q", i, c, (*calls)[i])
		}
	}

	apps, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(apps) != 0 {
		t.Errorf("expected empty blocklist after unblock, got %+v", apps)
	}
}

func TestUnblockUnknownApp(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Unblock("nothing")
	if !errors.Is(err, ErrNotBlocked) {
		t.Errorf("expected ErrNotBlocked, got %v", err)
	}
}

func TestBlocklistPersistsAcrossManagers(t *testing.T) {
	dir := t.TempDir()
	exe := writeFakeExe(t, "slack")

	m1 := New(dir)
	m1.goos = "linux"
	m1.run = func(string, ...string) ([]byte, error) { return nil, nil }
	if _, err := m1.Block(exe); err != nil {
		t.Fatalf("Block failed: %v", err)
	}

	m2 := New(dir)
	apps, err := m2.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(apps) != 1 || apps[0].Name != "slack" {
		t.Errorf("expected persisted slack entry, got %+v", apps)
	}
}

func TestListSortedByName(t *testing.T) {
	m, _ := newTestManager(t)
	for _, name := range []string{"zoom", "arc", "mail"} {
		if _, err := m.Block(writeFakeExe(t, name)); err != nil {
			t.Fatalf("Block %s failed: %v", name, err)
		}
	}

	apps, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	got := make([]string, len(apps))
	for i, a := range apps {
		got[i] = a.Name
	}
	want := []string{"arc", "mail", "zoom"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sorted %v, got %v", want, got)
		}
	}
}

func TestAppNameForPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/Applications/Safari.app/Contents/MacOS/Safari", "Safari"},
		{"C:/Program Files/App/app.EXE", "app"},
		{"/usr/bin/curl", "curl"},
	}
	for _, tc := range cases {
		if got := appNameForPath(tc.path); got != tc.want {
			t.Errorf("appNameForPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
