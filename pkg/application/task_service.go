package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/achievement"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

// CompletionRecorder is notified after a task is committed as DONE.
type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, task *planning.Task) ([]achievement.Achievement, error)
}

// PlanAdjuster reshapes a plan in response to user behavior.
type PlanAdjuster interface {
	Adjust(ctx context.Context, planID, reason string) (*AdjustmentResult, error)
}

// CompletionResult is the outcome of TaskService.MarkDone.
type CompletionResult struct {
	Task    *planning.Task
	Awarded []achievement.Achievement
}

// SkipResult is the outcome of TaskService.MarkSkip. Adjustment is set
// when the skip crossed the adjustment threshold.
type SkipResult struct {
	Task       *planning.Task
	Adjustment *AdjustmentResult
}

// RescheduleResult holds the original task and its PENDING replacement.
type RescheduleResult struct {
	Original *planning.Task
	Clone    *planning.Task
}

type TaskService struct {
	uow      domain.UnitOfWork
	tracker  CompletionRecorder
	adjuster PlanAdjuster
	policy   planning.SkipPolicy
	clock    clock.Clock
	tz       *clock.Resolver
	audit    domain.AuditLogger
	logger   *slog.Logger
}

func NewTaskService(
	uow domain.UnitOfWork,
	tracker CompletionRecorder,
	adjuster PlanAdjuster,
	policy planning.SkipPolicy,
	clk clock.Clock,
	tz *clock.Resolver,
	audit domain.AuditLogger,
	logger *slog.Logger,
) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if tz == nil {
		tz = clock.NewResolver()
	}
	return &TaskService{
		uow:      uow,
		tracker:  tracker,
		adjuster: adjuster,
		policy:   policy,
		clock:    clk,
		tz:       tz,
		audit:    audit,
		logger:   logger,
	}
}

func (s *TaskService) Get(ctx context.Context, taskID string) (*planning.Task, error) {
	return s.uow.Plans().GetTask(ctx, taskID)
}

// ListToday returns the tasks of the user's ACTIVE plan due on their
// local today, in send order.
func (s *TaskService) ListToday(ctx context.Context, userID string) ([]planning.Task, error) {
	plan, err := s.uow.Plans().ActivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	today, err := localToday(ctx, s.uow.Profiles(), s.tz, s.clock.Now(), userID)
	if err != nil {
		return nil, err
	}
	return s.uow.Plans().ListTasks(ctx, plan.ID, planning.TaskFilter{DueDate: &today})
}

// MarkDone completes a task, then records streaks and badges. Tracker
// failures are logged; the completion itself stands.
func (s *TaskService) MarkDone(ctx context.Context, taskID, response string) (*CompletionResult, error) {
	now := s.clock.Now()
	task, err := s.transition(ctx, taskID, func(t *planning.Task) error {
		return t.MarkDone(now, response)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task done", "task_id", task.ID, "plan_id", task.PlanID)
	logAudit(ctx, s.audit, s.logger, domain.ActionTaskDone, domain.ActorUser, map[string]interface{}{
		"task_id": task.ID,
		"plan_id": task.PlanID,
	})

	result := &CompletionResult{Task: task}
	if s.tracker != nil {
		awarded, err := s.tracker.RecordCompletion(ctx, task)
		if err != nil {
			s.logger.Error("achievement tracking failed", "task_id", task.ID, "error", err)
		}
		result.Awarded = awarded
	}
	return result, nil
}

// MarkSkip skips a task. When the most recent skips in the plan cross the
// skip policy threshold the plan is handed to the adjuster.
func (s *TaskService) MarkSkip(ctx context.Context, taskID, response string) (*SkipResult, error) {
	now := s.clock.Now()
	task, err := s.transition(ctx, taskID, func(t *planning.Task) error {
		return t.MarkSkipped(now, response)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task skipped", "task_id", task.ID, "plan_id", task.PlanID)
	logAudit(ctx, s.audit, s.logger, domain.ActionTaskSkipped, domain.ActorUser, map[string]interface{}{
		"task_id": task.ID,
		"plan_id": task.PlanID,
	})

	result := &SkipResult{Task: task}
	threshold := s.policy.Threshold
	if threshold <= 0 {
		threshold = planning.DefaultSkipThreshold
	}
	recent, err := s.uow.Plans().RecentlySkipped(ctx, task.PlanID, threshold)
	if err != nil {
		s.logger.Warn("could not load recent skips", "plan_id", task.PlanID, "error", err)
		return result, nil
	}
	if !s.policy.ShouldTriggerAdjustment(recent) || s.adjuster == nil {
		return result, nil
	}

	s.logger.Info("skip threshold reached, adjusting plan", "plan_id", task.PlanID, "skips", len(recent))
	adj, err := s.adjuster.Adjust(ctx, task.PlanID, planning.AdjustmentReasonSkips)
	if err != nil {
		s.logger.Error("plan adjustment failed", "plan_id", task.PlanID, "error", err)
		return result, nil
	}
	result.Adjustment = adj
	return result, nil
}

// Reschedule moves a task to newDate: the original becomes RESCHEDULED
// and a PENDING copy is created on the new date.
func (s *TaskService) Reschedule(ctx context.Context, taskID string, newDate time.Time) (*RescheduleResult, error) {
	newDate = clock.DateOf(newDate)
	var result RescheduleResult

	err := s.uow.Atomically(ctx, func(r domain.Repositories) error {
		task, err := r.Plans().GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		plan, err := r.Plans().GetPlan(ctx, task.PlanID)
		if err != nil {
			return err
		}
		if err := task.MarkRescheduled(newDate, planning.RescheduledByUser); err != nil {
			return err
		}
		if err := r.Plans().UpdateTask(ctx, task); err != nil {
			return err
		}
		clone := task.CloneForDate(plan, newDate)
		if err := r.Plans().CreateTask(ctx, clone); err != nil {
			return err
		}
		result = RescheduleResult{Original: task, Clone: clone}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reschedule task %s: %w", taskID, err)
	}

	logAudit(ctx, s.audit, s.logger, domain.ActionTaskRescheduled, domain.ActorUser, map[string]interface{}{
		"task_id":  taskID,
		"clone_id": result.Clone.ID,
		"date":     clock.FormatDate(newDate),
	})
	return &result, nil
}

// transition loads, mutates and saves one task in a transaction.
func (s *TaskService) transition(ctx context.Context, taskID string, apply func(*planning.Task) error) (*planning.Task, error) {
	var task *planning.Task
	err := s.uow.Atomically(ctx, func(r domain.Repositories) error {
		t, err := r.Plans().GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		if err := apply(t); err != nil {
			return err
		}
		if err := r.Plans().UpdateTask(ctx, t); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}
