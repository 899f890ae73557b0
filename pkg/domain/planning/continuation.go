package planning

import (
	"fmt"
	"time"
)

// Thresholds for suggesting the next phase of a plan.
const (
	ContinuationMinCompletionPct = 80
	ContinuationMaxDaysRemaining = 5
)

// ContinuationAdvice describes whether a plan is ready for its next phase.
type ContinuationAdvice struct {
	Ready         bool   `json:"ready"`
	CompletionPct int    `json:"completion_pct"`
	DaysRemaining int    `json:"days_remaining"`
	Reason        string `json:"reason"`
}

// CheckContinuation evaluates plan readiness for continuation as of today.
// It has no side effects.
func CheckContinuation(p *Plan, tasks []Task, today time.Time) ContinuationAdvice {
	advice := ContinuationAdvice{
		CompletionPct: CompletionPct(tasks),
		DaysRemaining: p.DaysRemaining(today),
	}

	switch {
	case p.Status != PlanActive:
		advice.Reason = fmt.Sprintf("plan is %s", p.Status)
	case advice.DaysRemaining <= 0:
		advice.Ready = true
		advice.Reason = "plan period has ended"
	case advice.CompletionPct >= ContinuationMinCompletionPct && advice.DaysRemaining < ContinuationMaxDaysRemaining:
		advice.Ready = true
		advice.Reason = fmt.Sprintf("%d%% complete with %d days remaining", advice.CompletionPct, advice.DaysRemaining)
	default:
		advice.Reason = fmt.Sprintf("%d%% complete with %d days remaining", advice.CompletionPct, advice.DaysRemaining)
	}
	return advice
}

// CategoryStats summarizes outcomes for one category.
type CategoryStats struct {
	Category Category `json:"category"`
	Total    int      `json:"total"`
	Done     int      `json:"done"`
	Skipped  int      `json:"skipped"`
}

// Rate is the share of tasks completed, 0..1.
func (s CategoryStats) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Done) / float64(s.Total)
}

// SummarizeCategories groups tasks by category in AllCategories order,
// omitting categories without tasks.
func SummarizeCategories(tasks []Task) []CategoryStats {
	byCat := make(map[Category]*CategoryStats)
	for _, t := range tasks {
		s, ok := byCat[t.Category]
		if !ok {
			s = &CategoryStats{Category: t.Category}
			byCat[t.Category] = s
		}
		s.Total++
		switch t.Status {
		case StatusDone:
			s.Done++
		case StatusSkipped:
			s.Skipped++
		}
	}

	var out []CategoryStats
	for _, c := range AllCategories() {
		if s, ok := byCat[c]; ok {
			out = append(out, *s)
		}
	}
	return out
}

// StrengthsAndWeaknesses splits categories into those with a completion
// rate of at least 70% and those below 40%.
func StrengthsAndWeaknesses(stats []CategoryStats) (strong, weak []Category) {
	for _, s := range stats {
		switch rate := s.Rate(); {
		case rate >= 0.7:
			strong = append(strong, s.Category)
		case rate < 0.4:
			weak = append(weak, s.Category)
		}
	}
	return strong, weak
}
