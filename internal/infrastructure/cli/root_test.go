package cli

import (
	"strings"
	"testing"
)

func TestExecuteHelp(t *testing.T) {
	dir := newDataDir(t)

	out := mustRun(t, dir, "--help")
	for _, cmd := range []string{"dispatch", "plan", "reply", "weekly-summary", "audit"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("help should list %q", cmd)
		}
	}
}

func TestBar(t *testing.T) {
	if got := bar(50); strings.Count(got, "█") != 10 || strings.Count(got, "░") != 10 {
		t.Errorf("bar(50) = %q", got)
	}
	if got := bar(150); strings.Count(got, "█") != 20 {
		t.Errorf("bar should clamp, got %q", got)
	}
}

func TestParseAt(t *testing.T) {
	got, err := parseAt("2026-03-02T09:30:00+01:00")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hour() != 8 || got.Location().String() != "UTC" {
		t.Errorf("expected UTC 08:30, got %v", got)
	}
	if _, err := parseAt("tomorrow"); err == nil {
		t.Error("expected error for non RFC 3339 time")
	}
}
