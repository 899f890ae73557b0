// Package prompt renders the typed inputs of each AI call into prompts.
package prompt

import (
	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
)

// Renderer turns typed inputs into system/user prompt pairs. The
// orchestrator and the schedulers depend on this interface only.
type Renderer interface {
	PlanGeneration(in PlanGenerationInput) (ai.Prompt, error)
	PlanAdjustment(in PlanAdjustmentInput) (ai.Prompt, error)
	PlanContinuation(in PlanContinuationInput) (ai.Prompt, error)
	DailyMessage(in DailyMessageInput) (ai.Prompt, error)
	WeeklySummary(in WeeklySummaryInput) (ai.Prompt, error)
}

type PlanGenerationInput struct {
	Profile      profile.BusinessProfile
	DurationDays int
}

// RemainingTask is a PENDING task offered to the adjustment call.
type RemainingTask struct {
	ID        string
	Title     string
	DayNumber int
	Category  planning.Category
}

type PlanAdjustmentInput struct {
	Profile   profile.BusinessProfile
	Completed []string
	Skipped   []string
	Remaining []RemainingTask
	Reason    string
	// MaxRemovalPct is stated to the model when a removal cap is in force.
	MaxRemovalPct int
}

type PlanContinuationInput struct {
	Profile         profile.BusinessProfile
	PreviousPhase   int
	Phase           int
	DurationDays    int
	TotalTasks      int
	CompletedCount  int
	SkippedCount    int
	CompletionPct   int
	Strong          []planning.Category
	Weak            []planning.Category
	CompletedTitles []string
	SkippedTitles   []string
	Pulses          []profile.Pulse
}

// TaskLine is one task as listed in a message.
type TaskLine struct {
	Title            string
	EstimatedMinutes int
}

type DailyMessageInput struct {
	FirstName       string
	BusinessName    string
	BusinessType    string
	DayNumber       int
	TotalDays       int
	CompletionPct   int
	YesterdayStatus string
	Tasks           []TaskLine
	Channel         delivery.Channel
}

type WeeklySummaryInput struct {
	FirstName       string
	BusinessName    string
	BusinessType    string
	WeekNumber      int
	TotalWeeks      int
	CompletedCount  int
	SkippedCount    int
	CompletionRate  int
	OverallPct      int
	CurrentStreak   int
	CompletedTitles []string
	SkippedTitles   []string
	NextWeek        []string
	Badges          []string
}
