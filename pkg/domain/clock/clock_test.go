package clock_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
)

func TestResolver_IsSendHour(t *testing.T) {
	r := clock.NewResolver()
	// 13:00 UTC in January is 08:00 in New York.
	now := time.Date(2026, 1, 15, 13, 0, 0, 0, time.UTC)

	ok, err := r.IsSendHour(now, "America/New_York", 8)
	if err != nil {
		t.Fatalf("IsSendHour failed: %v", err)
	}
	if !ok {
		t.Error("expected send hour to match")
	}

	ok, _ = r.IsSendHour(now, "UTC", 8)
	if ok {
		t.Error("expected UTC 13:00 not to match hour 8")
	}
}

func TestResolver_DefaultTimezone(t *testing.T) {
	r := clock.NewResolver()
	loc, err := r.Location("")
	if err != nil {
		t.Fatalf("Location failed: %v", err)
	}
	if loc.String() != clock.DefaultTimezone {
		t.Errorf("expected %s, got %s", clock.DefaultTimezone, loc.String())
	}
}

func TestResolver_InvalidTimezone(t *testing.T) {
	r := clock.NewResolver()
	if _, err := r.Location("Mars/Olympus"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestResolver_TodayCrossesDateBoundary(t *testing.T) {
	r := clock.NewResolver()
	// 02:00 UTC on the 16th is still the 15th in Los Angeles.
	now := time.Date(2026, 1, 16, 2, 0, 0, 0, time.UTC)

	today, err := r.Today(now, "America/Los_Angeles")
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if got := clock.FormatDate(today); got != "2026-01-15" {
		t.Errorf("expected 2026-01-15, got %s", got)
	}
}

func TestDateHelpers(t *testing.T) {
	start, err := clock.ParseDate("2026-03-01")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	end := clock.AddDays(start, 30)
	if clock.FormatDate(end) != "2026-03-31" {
		t.Errorf("unexpected end date %s", clock.FormatDate(end))
	}
	if d := clock.DaysBetween(start, end); d != 30 {
		t.Errorf("expected 30 days, got %d", d)
	}
	if _, err := clock.ParseDate("03/01/2026"); err == nil {
		t.Error("expected error for malformed date")
	}
}
