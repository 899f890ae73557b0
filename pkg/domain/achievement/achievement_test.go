package achievement_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/achievement"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
)

func TestCurrentStreak(t *testing.T) {
	today := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{today, clock.AddDays(today, -1), clock.AddDays(today, -2)}

	if got := achievement.CurrentStreak(dates, today); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}

	// A record before a gap does not extend the streak.
	dates = append(dates, clock.AddDays(today, -4))
	if got := achievement.CurrentStreak(dates, today); got != 3 {
		t.Errorf("expected 3 with gap, got %d", got)
	}
}

func TestCurrentStreak_NoRecordToday(t *testing.T) {
	today := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{clock.AddDays(today, -1), clock.AddDays(today, -2)}
	if got := achievement.CurrentStreak(dates, today); got != 0 {
		t.Errorf("expected 0 without a record today, got %d", got)
	}
}

func TestLongestStreak(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{
		base, clock.AddDays(base, 1),
		clock.AddDays(base, 5), clock.AddDays(base, 6), clock.AddDays(base, 7), clock.AddDays(base, 8),
	}
	if got := achievement.LongestStreak(dates); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if got := achievement.LongestStreak(nil); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestDescribe(t *testing.T) {
	if achievement.Describe(achievement.BadgeStreak7).Title != "Week Warrior" {
		t.Error("unexpected title for STREAK_7")
	}
	if achievement.Describe("UNKNOWN").Title != "UNKNOWN" {
		t.Error("unknown badges fall back to their code")
	}
}
