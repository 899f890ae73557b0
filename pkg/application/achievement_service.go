package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/achievement"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
	"github.com/google/uuid"
)

// Badge rule constants.
const (
	categoryMasterMinTasks = 3
	firstWeekDays          = 7
	firstWeekActiveDays    = 5
	comebackGapDays        = 3
	multiPlanMinPlans      = 2
	// streakPageDays is how many days of streak records one query reads
	// while walking a streak back from today.
	streakPageDays = 120
)

// AchievementService maintains streak records and awards badges when a
// task is completed.
type AchievementService struct {
	uow    domain.UnitOfWork
	clock  clock.Clock
	tz     *clock.Resolver
	audit  domain.AuditLogger
	logger *slog.Logger
}

func NewAchievementService(uow domain.UnitOfWork, clk clock.Clock, tz *clock.Resolver, audit domain.AuditLogger, logger *slog.Logger) *AchievementService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if tz == nil {
		tz = clock.NewResolver()
	}
	return &AchievementService{uow: uow, clock: clk, tz: tz, audit: audit, logger: logger}
}

// RecordCompletion bumps the user's streak for their local today and
// awards every badge the completion unlocks. It returns newly awarded
// badges only.
func (s *AchievementService) RecordCompletion(ctx context.Context, task *planning.Task) ([]achievement.Achievement, error) {
	now := s.clock.Now()
	var awarded []achievement.Achievement
	var userID string

	err := s.uow.Atomically(ctx, func(r domain.Repositories) error {
		awarded = nil

		plan, err := r.Plans().GetPlan(ctx, task.PlanID)
		if err != nil {
			return err
		}
		userID = plan.UserID

		today, err := localToday(ctx, r.Profiles(), s.tz, now, plan.UserID)
		if err != nil {
			return err
		}

		previous, err := r.Achievements().LatestStreakBefore(ctx, plan.UserID, today)
		if err != nil {
			return err
		}
		if _, err := r.Achievements().IncrementStreak(ctx, plan.UserID, today); err != nil {
			return err
		}

		tasks, err := r.Plans().ListTasks(ctx, plan.ID, planning.TaskFilter{})
		if err != nil {
			return err
		}

		c := &badgeCheck{ctx: ctx, repo: r.Achievements(), userID: plan.UserID, now: now}
		if err := s.checkMilestones(c, r, plan, task, tasks); err != nil {
			return err
		}
		if err := s.checkStreaks(c, r, today); err != nil {
			return err
		}
		if err := s.checkSpecial(c, r, task, today, previous); err != nil {
			return err
		}
		awarded = c.awarded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record completion of task %s: %w", task.ID, err)
	}

	for _, a := range awarded {
		s.logger.Info("achievement awarded", "user_id", a.UserID, "badge", a.Badge, "key", a.Key)
		logAudit(ctx, s.audit, s.logger, domain.ActionAchievementAwarded, domain.ActorSystem, map[string]interface{}{
			"user_id": userID,
			"badge":   string(a.Badge),
			"key":     a.Key,
		})
	}
	return awarded, nil
}

func (s *AchievementService) checkMilestones(c *badgeCheck, r domain.Repositories, plan *planning.Plan, task *planning.Task, tasks []planning.Task) error {
	doneTotal, err := r.Plans().CountDone(c.ctx, plan.UserID)
	if err != nil {
		return err
	}
	if doneTotal >= 1 {
		if err := c.award(achievement.BadgeFirstTask, "", nil); err != nil {
			return err
		}
	}

	total := len(tasks)
	done := planning.CountByStatus(tasks, planning.StatusDone)
	planMeta := map[string]string{"plan_id": plan.ID}
	if total > 0 && 2*done >= total {
		if err := c.award(achievement.BadgeHalfPlan, plan.ID, planMeta); err != nil {
			return err
		}
	}
	if total > 0 && done == total {
		if err := c.award(achievement.BadgePlanComplete, plan.ID, planMeta); err != nil {
			return err
		}
	}

	inCategory, doneInCategory := 0, 0
	for _, t := range tasks {
		if t.Category != task.Category {
			continue
		}
		inCategory++
		if t.Status == planning.StatusDone {
			doneInCategory++
		}
	}
	if inCategory >= categoryMasterMinTasks && doneInCategory == inCategory {
		key := plan.ID + ":" + string(task.Category)
		meta := map[string]string{"plan_id": plan.ID, "category": string(task.Category)}
		if err := c.award(achievement.BadgeCategoryMaster, key, meta); err != nil {
			return err
		}
	}
	return nil
}

// checkStreaks awards streak thresholds, and FIRST_WEEK once the user's
// active plan has run for a week with enough active days in it.
func (s *AchievementService) checkStreaks(c *badgeCheck, r domain.Repositories, today time.Time) error {
	current, err := currentStreak(c.ctx, c.repo, c.userID, today)
	if err != nil {
		return err
	}
	for _, th := range achievement.StreakThresholds {
		if current < th.Days {
			break
		}
		if err := c.award(th.Badge, "", map[string]string{"streak": fmt.Sprint(current)}); err != nil {
			return err
		}
	}

	plan, err := r.Plans().ActivePlan(c.ctx, c.userID)
	if errors.Is(err, planning.ErrNoActivePlan) {
		return nil
	}
	if err != nil {
		return err
	}
	if clock.DaysBetween(plan.StartDate, today) < firstWeekDays {
		return nil
	}
	firstWeek, err := c.repo.StreakDates(c.ctx, c.userID, plan.StartDate, clock.AddDays(plan.StartDate, firstWeekDays-1))
	if err != nil {
		return err
	}
	if len(firstWeek) >= firstWeekActiveDays {
		return c.award(achievement.BadgeFirstWeek, "", map[string]string{"plan_id": plan.ID})
	}
	return nil
}

func (s *AchievementService) checkSpecial(c *badgeCheck, r domain.Repositories, task *planning.Task, today, previous time.Time) error {
	if task.Difficulty == planning.DifficultyHard && task.SentAt != nil && task.CompletedAt != nil {
		took := task.CompletedAt.Sub(*task.SentAt)
		if took < time.Duration(task.EstimatedMinutes)*time.Minute {
			if err := c.award(achievement.BadgeSpeedDemon, "", map[string]string{"task_id": task.ID}); err != nil {
				return err
			}
		}
	}

	if !previous.IsZero() && clock.DaysBetween(previous, today) >= comebackGapDays {
		if err := c.award(achievement.BadgeComeback, "", map[string]string{"gap_days": fmt.Sprint(clock.DaysBetween(previous, today))}); err != nil {
			return err
		}
	}

	plans, err := r.Plans().CountPlansWithDone(c.ctx, c.userID)
	if err != nil {
		return err
	}
	if plans >= multiPlanMinPlans {
		return c.award(achievement.BadgeMultiPlan, "", nil)
	}
	return nil
}

// GetCurrentStreak returns the number of consecutive days, ending at the
// user's local today, with at least one completed task.
func (s *AchievementService) GetCurrentStreak(ctx context.Context, userID string) (int, error) {
	today, err := localToday(ctx, s.uow.Profiles(), s.tz, s.clock.Now(), userID)
	if err != nil {
		return 0, err
	}
	return currentStreak(ctx, s.uow.Achievements(), userID, today)
}

// currentStreak walks back from today one page at a time until it reaches
// a day without a completion.
func currentStreak(ctx context.Context, repo achievement.Repository, userID string, today time.Time) (int, error) {
	total, end := 0, clock.DateOf(today)
	for {
		from := clock.AddDays(end, -(streakPageDays - 1))
		dates, err := repo.StreakDates(ctx, userID, from, end)
		if err != nil {
			return 0, err
		}
		n := achievement.CurrentStreak(dates, end)
		total += n
		if n < streakPageDays {
			return total, nil
		}
		end = clock.AddDays(from, -1)
	}
}

func (s *AchievementService) List(ctx context.Context, userID string) ([]achievement.Achievement, error) {
	return s.uow.Achievements().ListAchievements(ctx, userID)
}

// badgeCheck accumulates awards made within one transaction.
type badgeCheck struct {
	ctx     context.Context
	repo    achievement.Repository
	userID  string
	now     time.Time
	awarded []achievement.Achievement
}

func (c *badgeCheck) award(badge achievement.Badge, key string, meta map[string]string) error {
	has, err := c.repo.HasAchievement(c.ctx, c.userID, badge, key)
	if err != nil || has {
		return err
	}

	def := achievement.Describe(badge)
	a := achievement.Achievement{
		ID:          uuid.New().String(),
		UserID:      c.userID,
		Badge:       badge,
		Key:         key,
		Title:       def.Title,
		Description: def.Description,
		EarnedAt:    c.now,
		Metadata:    meta,
	}
	added, err := c.repo.AddAchievement(c.ctx, &a)
	if err != nil {
		return err
	}
	if added {
		c.awarded = append(c.awarded, a)
	}
	return nil
}

// localToday resolves the user's local calendar date. Unknown users fall
// back to the default timezone.
func localToday(ctx context.Context, profiles profile.Repository, tz *clock.Resolver, now time.Time, userID string) (time.Time, error) {
	zone := clock.DefaultTimezone
	u, err := profiles.GetUser(ctx, userID)
	switch {
	case err == nil:
		zone = u.Timezone
	case !errors.Is(err, profile.ErrUserNotFound):
		return time.Time{}, err
	}
	return tz.Today(now, zone)
}
