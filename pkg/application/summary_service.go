package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
	"github.com/felixgeelhaar/launchpath/pkg/prompt"
)

// summaryNextWeekLimit caps the upcoming tasks listed in a summary.
const summaryNextWeekLimit = 5

// SummaryReport counts the outcomes of one weekly summary run.
type SummaryReport struct {
	Considered int `json:"considered"`
	Sent       int `json:"sent"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// SummaryService sends the weekly progress recap.
type SummaryService struct {
	uow       domain.UnitOfWork
	formatter ai.Formatter
	renderer  prompt.Renderer
	gateway   delivery.Gateway
	tz        *clock.Resolver
	audit     domain.AuditLogger
	logger    *slog.Logger
}

func NewSummaryService(uow domain.UnitOfWork, formatter ai.Formatter, renderer prompt.Renderer, gateway delivery.Gateway, tz *clock.Resolver, audit domain.AuditLogger, logger *slog.Logger) *SummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	if tz == nil {
		tz = clock.NewResolver()
	}
	return &SummaryService{uow: uow, formatter: formatter, renderer: renderer, gateway: gateway, tz: tz, audit: audit, logger: logger}
}

// SendWeeklySummaries sends every onboarded user with an ACTIVE plan a
// recap of the seven days ending on their local today.
func (s *SummaryService) SendWeeklySummaries(ctx context.Context, now time.Time) (SummaryReport, error) {
	var report SummaryReport
	for u, err := range s.uow.Profiles().OnboardedUsers(ctx) {
		if err != nil {
			return report, fmt.Errorf("enumerate users: %w", err)
		}
		report.Considered++

		sent, err := s.summarize(ctx, u, now)
		switch {
		case err != nil:
			report.Failed++
			s.logger.Error("weekly summary failed", "user_id", u.ID, "error", err)
		case sent:
			report.Sent++
		default:
			report.Skipped++
		}
	}
	s.logger.Info("weekly summaries finished", "considered", report.Considered, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

func (s *SummaryService) summarize(ctx context.Context, u profile.User, now time.Time) (bool, error) {
	u.ApplyDefaults()
	plan, err := s.uow.Plans().ActivePlan(ctx, u.ID)
	if errors.Is(err, planning.ErrNoActivePlan) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	today, err := s.tz.Today(now, u.Timezone)
	if err != nil {
		return false, err
	}
	tasks, err := s.uow.Plans().ListTasks(ctx, plan.ID, planning.TaskFilter{})
	if err != nil {
		return false, err
	}
	in, err := s.buildInput(ctx, u, plan, tasks, today, now)
	if err != nil {
		return false, err
	}

	to := delivery.Recipient{UserID: u.ID, Name: u.FirstName, Phone: u.Phone, Email: u.Email}
	delivered := false
	if u.Email != "" {
		text := s.format(ctx, in)
		subject := fmt.Sprintf("Week %d — Your progress summary", in.WeekNumber)
		rec, err := s.gateway.SendEmail(ctx, to, subject, textToHTML(text), text)
		recordOutbound(ctx, s.uow.Messages(), s.logger, u.ID, delivery.ChannelEmail, subject, text, nil, rec, err)
		delivered = delivered || err == nil
	}
	if u.PreferredChannel.WantsSMS() && u.Phone != "" {
		body := truncateRunes(FallbackWeeklySummary(in), DefaultSMSMaxChars)
		rec, err := s.gateway.SendSMS(ctx, to, body)
		recordOutbound(ctx, s.uow.Messages(), s.logger, u.ID, delivery.ChannelSMS, "", body, nil, rec, err)
		delivered = delivered || err == nil
	}
	if !delivered {
		if u.Email == "" && u.Phone == "" {
			return false, nil
		}
		return false, errNoChannelDelivered
	}

	logAudit(ctx, s.audit, s.logger, domain.ActionSummarySent, domain.ActorScheduler, map[string]interface{}{
		"user_id": u.ID,
		"plan_id": plan.ID,
		"week":    in.WeekNumber,
	})
	return true, nil
}

func (s *SummaryService) buildInput(ctx context.Context, u profile.User, plan *planning.Plan, tasks []planning.Task, today, now time.Time) (prompt.WeeklySummaryInput, error) {
	weekStart := clock.AddDays(today, -6)
	in := prompt.WeeklySummaryInput{
		FirstName:  u.FirstName,
		WeekNumber: clock.DaysBetween(plan.StartDate, today)/7 + 1,
		TotalWeeks: int(math.Ceil(float64(plan.DurationDays) / 7)),
		OverallPct: planning.CompletionPct(tasks),
	}

	var weekTotal int
	for _, t := range tasks {
		if !t.DueDate.Before(weekStart) && !t.DueDate.After(today) {
			weekTotal++
			switch t.Status {
			case planning.StatusDone:
				in.CompletedCount++
				in.CompletedTitles = append(in.CompletedTitles, t.Title)
			case planning.StatusSkipped:
				in.SkippedCount++
				in.SkippedTitles = append(in.SkippedTitles, t.Title)
			}
		}
		if t.DueDate.After(today) && !t.DueDate.After(clock.AddDays(today, 7)) &&
			t.Status == planning.StatusPending && len(in.NextWeek) < summaryNextWeekLimit {
			in.NextWeek = append(in.NextWeek, t.Title)
		}
	}
	if weekTotal > 0 {
		in.CompletionRate = int(math.Round(100 * float64(in.CompletedCount) / float64(weekTotal)))
	}

	bp, err := s.uow.Profiles().GetBusinessProfile(ctx, u.ID)
	switch {
	case err == nil:
		in.BusinessName, in.BusinessType = bp.BusinessName, bp.BusinessType
	case !errors.Is(err, profile.ErrProfileNotFound):
		return in, err
	}

	if in.CurrentStreak, err = currentStreak(ctx, s.uow.Achievements(), u.ID, today); err != nil {
		return in, err
	}

	earned, err := s.uow.Achievements().ListAchievements(ctx, u.ID)
	if err != nil {
		return in, err
	}
	cutoff := now.Add(-7 * 24 * time.Hour)
	for _, a := range earned {
		if a.EarnedAt.After(cutoff) {
			in.Badges = append(in.Badges, a.Title)
		}
	}
	return in, nil
}

func (s *SummaryService) format(ctx context.Context, in prompt.WeeklySummaryInput) string {
	if s.formatter != nil && s.renderer != nil {
		p, err := s.renderer.WeeklySummary(in)
		if err == nil {
			msg, ferr := s.formatter.FormatMessage(ctx, p)
			if ferr == nil {
				return msg
			}
			err = ferr
		}
		s.logger.Warn("summary formatting failed, using fallback text", "error", err)
	}
	return FallbackWeeklySummary(in)
}

// FallbackWeeklySummary is the plain recap used when formatting fails
// and for SMS.
func FallbackWeeklySummary(in prompt.WeeklySummaryInput) string {
	msg := fmt.Sprintf("Week %d recap: %d done, %d skipped (%d%%). Plan %d%% complete. Current streak: %d days.",
		in.WeekNumber, in.CompletedCount, in.SkippedCount, in.CompletionRate, in.OverallPct, in.CurrentStreak)
	if len(in.Badges) > 0 {
		msg += fmt.Sprintf(" New badges: %d.", len(in.Badges))
	}
	return msg + " Keep going!"
}
