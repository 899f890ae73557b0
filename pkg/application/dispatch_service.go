package application

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
	"github.com/felixgeelhaar/launchpath/pkg/prompt"
)

// DefaultSMSMaxChars is the SMS body limit in characters.
const DefaultSMSMaxChars = 300

// DispatchConfig tunes a dispatch pass.
type DispatchConfig struct {
	// Workers bounds the number of users handled concurrently.
	Workers     int
	SMSMaxChars int
}

// DispatchReport counts the outcomes of one pass.
type DispatchReport struct {
	Considered int `json:"considered"`
	Sent       int `json:"sent"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

type dispatchOutcome int

const (
	outcomeSkipped dispatchOutcome = iota
	outcomeSent
	outcomeFailed
)

// errNoChannelDelivered is returned when every delivery attempt failed.
var errNoChannelDelivered = errors.New("no channel delivered")

// DispatchService sends each onboarded user the tasks due on their local
// today, once, at their preferred hour.
type DispatchService struct {
	uow       domain.UnitOfWork
	formatter ai.Formatter
	renderer  prompt.Renderer
	gateway   delivery.Gateway
	tz        *clock.Resolver
	audit     domain.AuditLogger
	config    DispatchConfig
	logger    *slog.Logger
}

func NewDispatchService(
	uow domain.UnitOfWork,
	formatter ai.Formatter,
	renderer prompt.Renderer,
	gateway delivery.Gateway,
	tz *clock.Resolver,
	audit domain.AuditLogger,
	config DispatchConfig,
	logger *slog.Logger,
) *DispatchService {
	if logger == nil {
		logger = slog.Default()
	}
	if tz == nil {
		tz = clock.NewResolver()
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.SMSMaxChars <= 0 {
		config.SMSMaxChars = DefaultSMSMaxChars
	}
	return &DispatchService{
		uow:       uow,
		formatter: formatter,
		renderer:  renderer,
		gateway:   gateway,
		tz:        tz,
		audit:     audit,
		config:    config,
		logger:    logger,
	}
}

// RunPass handles every onboarded user once as of now. Per-user failures
// are logged and counted; only a failure to enumerate users aborts the
// pass.
func (s *DispatchService) RunPass(ctx context.Context, now time.Time) (DispatchReport, error) {
	var (
		report DispatchReport
		mu     sync.Mutex
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, s.config.Workers)

	record := func(outcome dispatchOutcome) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case outcomeSent:
			report.Sent++
		case outcomeFailed:
			report.Failed++
		default:
			report.Skipped++
		}
	}

	var iterErr error
	for u, err := range s.uow.Profiles().OnboardedUsers(ctx) {
		if err != nil {
			iterErr = err
			break
		}
		if ctx.Err() != nil {
			iterErr = ctx.Err()
			break
		}
		report.Considered++

		sem <- struct{}{}
		wg.Add(1)
		go func(u profile.User) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, err := s.dispatchUser(ctx, u, now)
			if err != nil {
				s.logger.Error("dispatch failed", "user_id", u.ID, "error", err)
			}
			record(outcome)
		}(u)
	}
	wg.Wait()

	s.logger.Info("dispatch pass finished", "considered", report.Considered, "sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	if iterErr != nil {
		return report, fmt.Errorf("enumerate users: %w", iterErr)
	}
	return report, nil
}

func (s *DispatchService) dispatchUser(ctx context.Context, u profile.User, now time.Time) (dispatchOutcome, error) {
	u.ApplyDefaults()
	due, err := s.tz.IsSendHour(now, u.Timezone, u.DailySendHour)
	if err != nil {
		return outcomeFailed, err
	}
	if !due {
		return outcomeSkipped, nil
	}
	today, err := s.tz.Today(now, u.Timezone)
	if err != nil {
		return outcomeFailed, err
	}

	plan, err := s.uow.Plans().ActivePlan(ctx, u.ID)
	if errors.Is(err, planning.ErrNoActivePlan) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeFailed, err
	}

	tasks, err := s.uow.Plans().ListTasks(ctx, plan.ID, planning.TaskFilter{})
	if err != nil {
		return outcomeFailed, err
	}
	var todays, pending, yesterday []planning.Task
	for _, t := range tasks {
		switch {
		case t.DueDate.Equal(today):
			todays = append(todays, t)
			if t.Status == planning.StatusPending {
				pending = append(pending, t)
			}
		case t.DueDate.Equal(clock.AddDays(today, -1)):
			yesterday = append(yesterday, t)
		}
	}
	if len(todays) == 0 || planning.CountByStatus(todays, planning.StatusSent) > 0 || len(pending) == 0 {
		return outcomeSkipped, nil
	}

	bp, err := s.uow.Profiles().GetBusinessProfile(ctx, u.ID)
	if err != nil && !errors.Is(err, profile.ErrProfileNotFound) {
		return outcomeFailed, err
	}
	in := prompt.DailyMessageInput{
		FirstName:       u.FirstName,
		DayNumber:       plan.DayNumberFor(today),
		TotalDays:       plan.DurationDays,
		CompletionPct:   planning.CompletionPct(tasks),
		YesterdayStatus: yesterdayStatus(yesterday),
	}
	if bp != nil {
		in.BusinessName, in.BusinessType = bp.BusinessName, bp.BusinessType
	}
	for _, t := range pending {
		in.Tasks = append(in.Tasks, prompt.TaskLine{Title: t.Title, EstimatedMinutes: t.EstimatedMinutes})
	}

	to := delivery.Recipient{UserID: u.ID, Name: u.FirstName, Phone: u.Phone, Email: u.Email}
	taskIDs := make([]string, len(pending))
	for i, t := range pending {
		taskIDs[i] = t.ID
	}

	var sentText string
	attempted := false
	if u.PreferredChannel.WantsSMS() && u.Phone != "" {
		attempted = true
		body := truncateRunes(s.format(ctx, in, delivery.ChannelSMS), s.config.SMSMaxChars)
		rec, err := s.gateway.SendSMS(ctx, to, body)
		recordOutbound(ctx, s.uow.Messages(), s.logger, u.ID, delivery.ChannelSMS, "", body, taskIDs, rec, err)
		if err == nil {
			sentText = body
		}
	}
	if u.PreferredChannel.WantsEmail() && u.Email != "" {
		attempted = true
		text := s.format(ctx, in, delivery.ChannelEmail)
		subject := fmt.Sprintf("Day %d — Your business tasks", in.DayNumber)
		rec, err := s.gateway.SendEmail(ctx, to, subject, textToHTML(text), text)
		recordOutbound(ctx, s.uow.Messages(), s.logger, u.ID, delivery.ChannelEmail, subject, text, taskIDs, rec, err)
		if err == nil && sentText == "" {
			sentText = text
		}
	}
	if !attempted {
		s.logger.Warn("no contact for preferred channel", "user_id", u.ID, "channel", u.PreferredChannel)
		return outcomeSkipped, nil
	}
	if sentText == "" {
		return outcomeFailed, errNoChannelDelivered
	}

	err = s.uow.Atomically(ctx, func(r domain.Repositories) error {
		for _, id := range taskIDs {
			t, err := r.Plans().GetTask(ctx, id)
			if err != nil {
				return err
			}
			if err := t.MarkSent(now, sentText); err != nil {
				return err
			}
			if err := r.Plans().UpdateTask(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return outcomeFailed, fmt.Errorf("mark tasks sent: %w", err)
	}

	logAudit(ctx, s.audit, s.logger, domain.ActionDispatchSent, domain.ActorScheduler, map[string]interface{}{
		"user_id": u.ID,
		"plan_id": plan.ID,
		"tasks":   len(taskIDs),
	})
	return outcomeSent, nil
}

// format asks the formatting service for the message and falls back to
// a plain numbered list.
func (s *DispatchService) format(ctx context.Context, in prompt.DailyMessageInput, ch delivery.Channel) string {
	in.Channel = ch
	if s.formatter != nil && s.renderer != nil {
		p, err := s.renderer.DailyMessage(in)
		if err == nil {
			msg, ferr := s.formatter.FormatMessage(ctx, p)
			if ferr == nil {
				return msg
			}
			err = ferr
		}
		s.logger.Warn("message formatting failed, using fallback text", "channel", ch, "error", err)
	}
	return FallbackDailyMessage(in.Tasks)
}

// FallbackDailyMessage is the plain message sent when formatting fails.
func FallbackDailyMessage(tasks []prompt.TaskLine) string {
	var b strings.Builder
	b.WriteString("Here are today's tasks:\n")
	for i, t := range tasks {
		fmt.Fprintf(&b, "%d. %s (~%d min)\n", i+1, t.Title, t.EstimatedMinutes)
	}
	b.WriteString("Reply DONE or SKIP when finished!")
	return b.String()
}

func yesterdayStatus(tasks []planning.Task) string {
	if len(tasks) == 0 {
		return "no tasks"
	}
	return fmt.Sprintf("%d/%d tasks completed", planning.CountByStatus(tasks, planning.StatusDone), len(tasks))
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func textToHTML(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>"
}
