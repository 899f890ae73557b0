package application

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/achievement"
	"github.com/felixgeelhaar/launchpath/pkg/domain/analytics"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

// WeekStat aggregates one plan week.
type WeekStat struct {
	Week    int       `json:"week"`
	Start   time.Time `json:"start"`
	Total   int       `json:"total"`
	Done    int       `json:"done"`
	Skipped int       `json:"skipped"`
	Rate    int       `json:"rate"`
}

// PlanStat summarizes one plan for cross-phase comparison.
type PlanStat struct {
	PlanID        string              `json:"plan_id"`
	Title         string              `json:"title"`
	Phase         int                 `json:"phase"`
	Status        planning.PlanStatus `json:"status"`
	Total         int                 `json:"total"`
	Done          int                 `json:"done"`
	Skipped       int                 `json:"skipped"`
	CompletionPct int                 `json:"completion_pct"`
}

// UserStats is the headline summary for one user.
type UserStats struct {
	TotalDone       int `json:"total_done"`
	CurrentStreak   int `json:"current_streak"`
	LongestStreak   int `json:"longest_streak"`
	Badges          int `json:"badges"`
	MinutesInvested int `json:"minutes_invested"`
	ActivePlanPct   int `json:"active_plan_pct"`
	ActivePlanPhase int `json:"active_plan_phase"`
	DaysRemaining   int `json:"days_remaining"`
	PlansCompleted  int `json:"plans_completed"`
	PlansAttempted  int `json:"plans_attempted"`
	ActiveDaysWeek  int `json:"active_days_this_week"`
}

type AnalyticsService struct {
	uow   domain.UnitOfWork
	clock clock.Clock
	tz    *clock.Resolver
}

func NewAnalyticsService(uow domain.UnitOfWork, clk clock.Clock, tz *clock.Resolver) *AnalyticsService {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if tz == nil {
		tz = clock.NewResolver()
	}
	return &AnalyticsService{uow: uow, clock: clk, tz: tz}
}

// WeeklyTrend splits the ACTIVE plan into 7-day weeks from its start.
func (s *AnalyticsService) WeeklyTrend(ctx context.Context, userID string) ([]WeekStat, error) {
	plan, tasks, err := s.activePlanTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	weeks := int(math.Ceil(float64(plan.DurationDays) / 7))
	out := make([]WeekStat, weeks)
	for i := range out {
		out[i] = WeekStat{Week: i + 1, Start: clock.AddDays(plan.StartDate, 7*i)}
	}
	for _, t := range tasks {
		i := clock.DaysBetween(plan.StartDate, t.DueDate) / 7
		if i < 0 || i >= weeks {
			continue
		}
		out[i].Total++
		switch t.Status {
		case planning.StatusDone:
			out[i].Done++
		case planning.StatusSkipped:
			out[i].Skipped++
		}
	}
	for i := range out {
		if out[i].Total > 0 {
			out[i].Rate = int(math.Round(100 * float64(out[i].Done) / float64(out[i].Total)))
		}
	}
	return out, nil
}

// CategoryBreakdown summarizes the ACTIVE plan per category.
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, userID string) ([]planning.CategoryStats, error) {
	_, tasks, err := s.activePlanTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return planning.SummarizeCategories(tasks), nil
}

// TimeInvested sums the estimated minutes of every DONE task across all
// of the user's plans.
func (s *AnalyticsService) TimeInvested(ctx context.Context, userID string) (int, error) {
	plans, err := s.PlanComparison(ctx, userID)
	if err != nil {
		return 0, err
	}
	minutes := 0
	for _, p := range plans {
		tasks, err := s.uow.Plans().ListTasks(ctx, p.PlanID, planning.TaskFilter{Statuses: []planning.TaskStatus{planning.StatusDone}})
		if err != nil {
			return 0, err
		}
		for _, t := range tasks {
			minutes += t.EstimatedMinutes
		}
	}
	return minutes, nil
}

// PlanComparison lists every plan of the user with its outcome counts.
func (s *AnalyticsService) PlanComparison(ctx context.Context, userID string) ([]PlanStat, error) {
	plans, err := s.uow.Plans().ListPlans(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]PlanStat, 0, len(plans))
	for _, p := range plans {
		tasks, err := s.uow.Plans().ListTasks(ctx, p.ID, planning.TaskFilter{})
		if err != nil {
			return nil, err
		}
		out = append(out, PlanStat{
			PlanID:        p.ID,
			Title:         p.Title,
			Phase:         p.Phase,
			Status:        p.Status,
			Total:         len(tasks),
			Done:          planning.CountByStatus(tasks, planning.StatusDone),
			Skipped:       planning.CountByStatus(tasks, planning.StatusSkipped),
			CompletionPct: planning.CompletionPct(tasks),
		})
	}
	return out, nil
}

// StreakHistory returns one record per day for the last days days,
// ending at the user's local today. Days without completions count 0.
func (s *AnalyticsService) StreakHistory(ctx context.Context, userID string, days int) ([]achievement.StreakRecord, error) {
	if days <= 0 {
		days = 30
	}
	today, err := localToday(ctx, s.uow.Profiles(), s.tz, s.clock.Now(), userID)
	if err != nil {
		return nil, err
	}
	from := clock.AddDays(today, -(days - 1))
	records, err := s.uow.Achievements().ListStreaks(ctx, userID, from, today)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]int, len(records))
	for _, r := range records {
		byDate[clock.FormatDate(r.Date)] = r.TasksCompleted
	}

	out := make([]achievement.StreakRecord, days)
	for i := range out {
		d := clock.AddDays(from, i)
		out[i] = achievement.StreakRecord{UserID: userID, Date: d, TasksCompleted: byDate[clock.FormatDate(d)]}
	}
	return out, nil
}

// Summary gathers the headline numbers shown by the stats command.
func (s *AnalyticsService) Summary(ctx context.Context, userID string) (UserStats, error) {
	var st UserStats
	today, err := localToday(ctx, s.uow.Profiles(), s.tz, s.clock.Now(), userID)
	if err != nil {
		return st, err
	}

	if st.TotalDone, err = s.uow.Plans().CountDone(ctx, userID); err != nil {
		return st, err
	}
	if st.CurrentStreak, err = currentStreak(ctx, s.uow.Achievements(), userID, today); err != nil {
		return st, err
	}
	dates, err := s.uow.Achievements().StreakDates(ctx, userID, time.Time{}, today)
	if err != nil {
		return st, err
	}
	st.LongestStreak = achievement.LongestStreak(dates)
	for _, d := range dates {
		if clock.DaysBetween(d, today) < 7 {
			st.ActiveDaysWeek++
		}
	}

	badges, err := s.uow.Achievements().ListAchievements(ctx, userID)
	if err != nil {
		return st, err
	}
	st.Badges = len(badges)

	if st.MinutesInvested, err = s.TimeInvested(ctx, userID); err != nil {
		return st, err
	}

	plans, err := s.uow.Plans().ListPlans(ctx, userID)
	if err != nil {
		return st, err
	}
	st.PlansAttempted = len(plans)
	for _, p := range plans {
		if p.Status == planning.PlanCompleted {
			st.PlansCompleted++
		}
	}

	plan, tasks, err := s.activePlanTasks(ctx, userID)
	switch {
	case err == nil:
		st.ActivePlanPct = planning.CompletionPct(tasks)
		st.ActivePlanPhase = plan.Phase
		st.DaysRemaining = plan.DaysRemaining(today)
	case !errors.Is(err, planning.ErrNoActivePlan):
		return st, err
	}
	return st, nil
}

// Forecast projects when the ACTIVE plan's outstanding tasks will be
// finished at the user's recent completion pace.
func (s *AnalyticsService) Forecast(ctx context.Context, userID string) (analytics.ForecastResult, *planning.Plan, error) {
	plan, tasks, err := s.activePlanTasks(ctx, userID)
	if err != nil {
		return analytics.ForecastResult{}, nil, err
	}
	zone := clock.DefaultTimezone
	if u, err := s.uow.Profiles().GetUser(ctx, userID); err == nil {
		zone = u.Timezone
	}
	now := s.clock.Now()
	today, err := s.tz.Today(now, zone)
	if err != nil {
		return analytics.ForecastResult{}, nil, err
	}

	var completions []time.Time
	remaining := 0
	for _, t := range tasks {
		switch {
		case t.Status == planning.StatusDone && t.CompletedAt != nil:
			local, err := s.tz.Local(*t.CompletedAt, zone)
			if err != nil {
				return analytics.ForecastResult{}, nil, err
			}
			completions = append(completions, local)
		case t.Status.IsOutstanding():
			remaining++
		}
	}
	return analytics.Forecast(completions, remaining, len(tasks), today), plan, nil
}

func (s *AnalyticsService) activePlanTasks(ctx context.Context, userID string) (*planning.Plan, []planning.Task, error) {
	plan, err := s.uow.Plans().ActivePlan(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.uow.Plans().ListTasks(ctx, plan.ID, planning.TaskFilter{})
	if err != nil {
		return nil, nil, err
	}
	return plan, tasks, nil
}
