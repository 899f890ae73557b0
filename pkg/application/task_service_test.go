package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/launchpath/pkg/domain/achievement"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

func TestTaskService_MarkDone(t *testing.T) {
	e := newEnv(t, march2)
	e.addUser(t, "u1", 9)
	plan := e.generateFallback(t, "u1", date(t, "2026-03-02"))
	tasks := tasksOf(t, e, plan.ID)
	svc := e.tasks(&MockAdjuster{})
	ctx := context.Background()

	res, err := svc.MarkDone(ctx, tasks[0].ID, "done!")
	if err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if res.Task.Status != planning.StatusDone || res.Task.CompletedAt == nil || res.Task.UserResponse != "done!" {
		t.Errorf("unexpected task: %+v", res.Task)
	}
	if len(res.Awarded) != 1 || res.Awarded[0].Badge != achievement.BadgeFirstTask {
		t.Errorf("expected FIRST_TASK, got %+v", res.Awarded)
	}

	// A DONE task cannot be completed again and stays untouched.
	_, err = svc.MarkDone(ctx, tasks[0].ID, "again")
	if !errors.Is(err, planning.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	var te *planning.TransitionError
	if !errors.As(err, &te) || te.FromStatus != "DONE" {
		t.Errorf("expected transition error naming DONE, got %v", err)
	}
	got, _ := svc.Get(ctx, tasks[0].ID)
	if got.UserResponse != "done!" {
		t.Errorf("failed transition must not mutate, response=%q", got.UserResponse)
	}
}

func TestTaskService_MarkDone_NotFound(t *testing.T) {
	e := newEnv(t, march2)
	if _, err := e.tasks(nil).MarkDone(context.Background(), "missing", ""); !errors.Is(err, planning.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

type failingRecorder struct{}

func (failingRecorder) RecordCompletion(context.Context, *planning.Task) ([]achievement.Achievement, error) {
	return nil, errBoom
}

func TestTaskService_MarkDone_TrackerFailureIsSwallowed(t *testing.T) {
	e := newEnv(t, march2)
	e.addUser(t, "u1", 9)
	plan := e.generateFallback(t, "u1", date(t, "2026-03-02"))
	tasks := tasksOf(t, e, plan.ID)

	svc := newTaskServiceWith(e, failingRecorder{}, nil)
	res, err := svc.MarkDone(context.Background(), tasks[0].ID, "")
	if err != nil {
		t.Fatalf("tracker failure must not fail MarkDone: %v", err)
	}
	if res.Task.Status != planning.StatusDone {
		t.Errorf("expected DONE, got %s", res.Task.Status)
	}
}

func TestTaskService_MarkSkip_TriggersAdjustmentOnThirdSkip(t *testing.T) {
	e := newEnv(t, march2)
	e.addUser(t, "u1", 9)
	plan := e.generateFallback(t, "u1", date(t, "2026-03-02"))
	tasks := tasksOf(t, e, plan.ID)
	adjuster := &MockAdjuster{}
	svc := e.tasks(adjuster)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := svc.MarkSkip(ctx, tasks[i].ID, "SKIP")
		if err != nil {
			t.Fatalf("MarkSkip %d: %v", i, err)
		}
		if res.Adjustment != nil {
			t.Errorf("skip %d should not adjust", i+1)
		}
	}
	if len(adjuster.Calls) != 0 {
		t.Fatalf("expected no adjustment yet, got %v", adjuster.Calls)
	}

	res, err := svc.MarkSkip(ctx, tasks[2].ID, "SKIP")
	if err != nil {
		t.Fatalf("MarkSkip: %v", err)
	}
	if res.Task.Status != planning.StatusSkipped || res.Task.SkippedAt == nil {
		t.Errorf("unexpected task: %+v", res.Task)
	}
	if len(adjuster.Calls) != 1 || adjuster.Calls[0] != plan.ID+"|"+planning.AdjustmentReasonSkips {
		t.Errorf("expected one adjustment with the skip reason, got %v", adjuster.Calls)
	}
	if res.Adjustment == nil || !res.Adjustment.Applied {
		t.Errorf("expected adjustment result, got %+v", res.Adjustment)
	}
}

func TestTaskService_MarkSkip_AdjustFailureIsLogged(t *testing.T) {
	e := newEnv(t, march2)
	e.addUser(t, "u1", 9)
	plan := e.generateFallback(t, "u1", date(t, "2026-03-02"))
	tasks := tasksOf(t, e, plan.ID)
	svc := e.tasks(&MockAdjuster{Err: errBoom})

	for i := 0; i < 3; i++ {
		if _, err := svc.MarkSkip(context.Background(), tasks[i].ID, ""); err != nil {
			t.Fatalf("MarkSkip %d: %v", i, err)
		}
	}
}

func TestTaskService_Reschedule(t *testing.T) {
	e := newEnv(t, march2)
	e.addUser(t, "u1", 9)
	plan := e.generateFallback(t, "u1", date(t, "2026-03-02"))
	tasks := tasksOf(t, e, plan.ID)
	svc := e.tasks(nil)
	ctx := context.Background()

	res, err := svc.Reschedule(ctx, tasks[1].ID, date(t, "2026-03-10"))
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if res.Original.Status != planning.StatusRescheduled || res.Original.RescheduledBy != planning.RescheduledByUser {
		t.Errorf("unexpected original: %+v", res.Original)
	}
	if res.Original.RescheduledTo == nil || !res.Original.RescheduledTo.Equal(date(t, "2026-03-10")) {
		t.Errorf("unexpected rescheduled_to: %v", res.Original.RescheduledTo)
	}
	clone := res.Clone
	if clone.Status != planning.StatusPending || clone.DayNumber != 9 || clone.Title != tasks[1].Title || clone.SortOrder != tasks[1].SortOrder {
		t.Errorf("unexpected clone: %+v", clone)
	}
	if got := len(tasksOf(t, e, plan.ID)); got != 7 {
		t.Errorf("expected 7 tasks, got %d", got)
	}

	if _, err := svc.Reschedule(ctx, tasks[1].ID, date(t, "2026-03-11")); !errors.Is(err, planning.ErrInvalidStateTransition) {
		t.Errorf("rescheduling a RESCHEDULED task should fail, got %v", err)
	}
}

func TestTaskService_ListToday(t *testing.T) {
	e := newEnv(t, march2)
	e.addUser(t, "u1", 9)
	e.generateFallback(t, "u1", date(t, "2026-03-01"))

	today, err := e.tasks(nil).ListToday(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListToday: %v", err)
	}
	if len(today) != 2 || today[0].Title != "Choose your business name" {
		t.Errorf("expected the two day-2 tasks, got %+v", today)
	}
}
