// Package achievement models streaks and badges derived from task completions.
package achievement

import (
	"context"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
)

type Badge string

const (
	BadgeFirstTask      Badge = "FIRST_TASK"
	BadgeHalfPlan       Badge = "HALF_PLAN"
	BadgePlanComplete   Badge = "PLAN_COMPLETE"
	BadgeCategoryMaster Badge = "CATEGORY_MASTER"
	BadgeStreak3        Badge = "STREAK_3"
	BadgeStreak7        Badge = "STREAK_7"
	BadgeStreak14       Badge = "STREAK_14"
	BadgeStreak30       Badge = "STREAK_30"
	BadgeFirstWeek      Badge = "FIRST_WEEK"
	BadgeSpeedDemon     Badge = "SPEED_DEMON"
	BadgeComeback       Badge = "COMEBACK"
	BadgeMultiPlan      Badge = "MULTI_PLAN"
)

// Definition is the display copy for a badge.
type Definition struct {
	Title       string
	Description string
}

var definitions = map[Badge]Definition{
	BadgeFirstTask:      {"First Step", "Completed your very first task"},
	BadgeHalfPlan:       {"Halfway There", "Completed half of your plan"},
	BadgePlanComplete:   {"Plan Complete", "Completed every task in your plan"},
	BadgeCategoryMaster: {"Category Master", "Completed every task in a category"},
	BadgeStreak3:        {"On a Roll", "Completed tasks 3 days in a row"},
	BadgeStreak7:        {"Week Warrior", "Completed tasks 7 days in a row"},
	BadgeStreak14:       {"Unstoppable", "Completed tasks 14 days in a row"},
	BadgeStreak30:       {"Habit Formed", "Completed tasks 30 days in a row"},
	BadgeFirstWeek:      {"Strong Start", "Active on 5 of the first 7 days of your plan"},
	BadgeSpeedDemon:     {"Speed Demon", "Finished a hard task faster than estimated"},
	BadgeComeback:       {"Comeback", "Came back after 3 or more days away"},
	BadgeMultiPlan:      {"Serial Builder", "Completed tasks across multiple plans"},
}

// Describe returns the display copy for b.
func Describe(b Badge) Definition {
	if d, ok := definitions[b]; ok {
		return d
	}
	return Definition{Title: string(b)}
}

// StreakThresholds maps consecutive-day counts to their badges, ascending.
var StreakThresholds = []struct {
	Days  int
	Badge Badge
}{
	{3, BadgeStreak3},
	{7, BadgeStreak7},
	{14, BadgeStreak14},
	{30, BadgeStreak30},
}

// StreakRecord counts tasks completed by a user on one calendar date.
type StreakRecord struct {
	UserID         string    `json:"user_id"`
	Date           time.Time `json:"date"`
	TasksCompleted int       `json:"tasks_completed"`
}

// Achievement is an awarded badge. Key scopes badges that may recur per
// plan or per category; it is empty for once-per-user badges.
type Achievement struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Badge       Badge             `json:"badge"`
	Key         string            `json:"key,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	EarnedAt    time.Time         `json:"earned_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Repository persists streak records and achievements.
type Repository interface {
	// IncrementStreak upserts the (user, date) record and returns its new count.
	IncrementStreak(ctx context.Context, userID string, date time.Time) (int, error)
	// StreakDates returns the dates with a record in [from, to], ascending.
	StreakDates(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error)
	// LatestStreakBefore returns the most recent record date before date,
	// or the zero time when none exists.
	LatestStreakBefore(ctx context.Context, userID string, date time.Time) (time.Time, error)
	ListStreaks(ctx context.Context, userID string, from, to time.Time) ([]StreakRecord, error)

	HasAchievement(ctx context.Context, userID string, badge Badge, key string) (bool, error)
	// AddAchievement stores a; it reports false when the (user, badge, key)
	// triple already exists.
	AddAchievement(ctx context.Context, a *Achievement) (bool, error)
	ListAchievements(ctx context.Context, userID string) ([]Achievement, error)
}

// CurrentStreak counts consecutive dates ending at today. dates must be a
// set of calendar dates in any order. A missing today yields 0.
func CurrentStreak(dates []time.Time, today time.Time) int {
	have := make(map[string]bool, len(dates))
	for _, d := range dates {
		have[clock.FormatDate(d)] = true
	}

	streak := 0
	for day := clock.DateOf(today); have[clock.FormatDate(day)]; day = clock.AddDays(day, -1) {
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive dates.
func LongestStreak(dates []time.Time) int {
	have := make(map[string]bool, len(dates))
	for _, d := range dates {
		have[clock.FormatDate(d)] = true
	}

	longest := 0
	for _, d := range dates {
		// Only start counting at the beginning of a run.
		if have[clock.FormatDate(clock.AddDays(d, -1))] {
			continue
		}
		n := 0
		for day := clock.DateOf(d); have[clock.FormatDate(day)]; day = clock.AddDays(day, 1) {
			n++
		}
		if n > longest {
			longest = n
		}
	}
	return longest
}
