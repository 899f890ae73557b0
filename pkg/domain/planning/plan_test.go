package planning_test

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

func date(s string) time.Time {
	d, err := clock.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewPlan(t *testing.T) {
	p := planning.NewPlan("u1", "bp1", 30, date("2026-03-01"))
	if p.Status != planning.PlanActive || p.Phase != 1 {
		t.Errorf("unexpected plan defaults: %+v", p)
	}
	if p.Title != "30-Day Launch Plan" {
		t.Errorf("unexpected title %q", p.Title)
	}
	if clock.FormatDate(p.EndDate) != "2026-03-31" {
		t.Errorf("expected end date 2026-03-31, got %s", clock.FormatDate(p.EndDate))
	}
}

func TestPlan_NewTaskDueDate(t *testing.T) {
	p := planning.NewPlan("u1", "bp1", 30, date("2026-03-01"))
	task := p.NewTask(planning.TaskSpec{Title: "Define mission", DayNumber: 3, Category: "planning", Difficulty: "easy"})

	if clock.FormatDate(task.DueDate) != "2026-03-03" {
		t.Errorf("expected due date 2026-03-03, got %s", clock.FormatDate(task.DueDate))
	}
	if task.Status != planning.StatusPending {
		t.Errorf("expected PENDING, got %s", task.Status)
	}
	if task.Category != planning.CategoryPlanning || task.Difficulty != planning.DifficultyEasy {
		t.Errorf("expected normalized category/difficulty, got %s/%s", task.Category, task.Difficulty)
	}
	if task.EstimatedMinutes != 30 {
		t.Errorf("expected default estimate 30, got %d", task.EstimatedMinutes)
	}
}

func TestTask_CloneForDate(t *testing.T) {
	p := planning.NewPlan("u1", "bp1", 30, date("2026-03-01"))
	orig := p.NewTask(planning.TaskSpec{Title: "Pricing", DayNumber: 2, SortOrder: 1, EstimatedMinutes: 45})
	orig.Status = planning.StatusSent

	clone := orig.CloneForDate(p, date("2026-03-05"))
	if clone.ID == orig.ID {
		t.Error("clone must have a fresh ID")
	}
	if clone.Status != planning.StatusPending {
		t.Errorf("expected PENDING clone, got %s", clone.Status)
	}
	if clone.DayNumber != 5 || clone.SortOrder != 1 || clone.EstimatedMinutes != 45 {
		t.Errorf("unexpected clone fields: %+v", clone)
	}
}

func TestCompletionPct(t *testing.T) {
	if got := planning.CompletionPct(nil); got != 0 {
		t.Errorf("expected 0 for no tasks, got %d", got)
	}
	tasks := []planning.Task{
		{Status: planning.StatusDone},
		{Status: planning.StatusDone},
		{Status: planning.StatusPending},
	}
	if got := planning.CompletionPct(tasks); got != 67 {
		t.Errorf("expected 67, got %d", got)
	}
	tasks[2].Status = planning.StatusDone
	if got := planning.CompletionPct(tasks); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}

func TestPlan_TransitionTo(t *testing.T) {
	p := planning.NewPlan("u1", "bp1", 30, date("2026-03-01"))
	if err := p.TransitionTo(planning.PlanPaused); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if err := p.TransitionTo(planning.PlanActive); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if err := p.TransitionTo(planning.PlanReplaced); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := p.TransitionTo(planning.PlanActive); !errors.Is(err, planning.ErrInvalidPlanTransition) {
		t.Errorf("expected ErrInvalidPlanTransition, got %v", err)
	}
}

func TestPlan_NextPhase(t *testing.T) {
	p := planning.NewPlan("u1", "bp1", 30, date("2026-03-01"))
	next := p.NextPhase(30, date("2026-03-31"))
	if next.Phase != 2 || next.PreviousPlanID != p.ID {
		t.Errorf("unexpected continuation: %+v", next)
	}
}

func TestPlan_Fingerprint(t *testing.T) {
	p := planning.NewPlan("u1", "bp1", 30, date("2026-03-01"))
	a := p.NewTask(planning.TaskSpec{Title: "A", DayNumber: 1})
	b := p.NewTask(planning.TaskSpec{Title: "B", DayNumber: 2})

	p.Tasks = []planning.Task{*a, *b}
	first := p.Fingerprint()
	p.Tasks = []planning.Task{*b, *a}
	if p.Fingerprint() != first {
		t.Error("fingerprint should not depend on slice order")
	}
	p.Tasks[0].Status = planning.StatusDone
	if p.Fingerprint() == first {
		t.Error("fingerprint should change with task status")
	}
}

func TestSkipPolicy(t *testing.T) {
	policy := planning.DefaultSkipPolicy()
	skipped := planning.Task{Status: planning.StatusSkipped}
	done := planning.Task{Status: planning.StatusDone}

	if !policy.ShouldTriggerAdjustment([]planning.Task{skipped, skipped, skipped}) {
		t.Error("expected three skips to trigger")
	}
	if policy.ShouldTriggerAdjustment([]planning.Task{skipped, skipped}) {
		t.Error("two skips should not trigger")
	}
	if policy.ShouldTriggerAdjustment([]planning.Task{skipped, done, skipped, skipped}) {
		t.Error("a completion breaks the run")
	}
	if got := planning.LeadingSkips([]planning.Task{skipped, skipped, skipped, skipped, done}); got != 4 {
		t.Errorf("expected 4 leading skips, got %d", got)
	}
}

func TestCheckContinuation(t *testing.T) {
	p := planning.NewPlan("u1", "bp1", 30, date("2026-03-01"))
	tasks := make([]planning.Task, 10)
	for i := range tasks {
		tasks[i].Status = planning.StatusDone
	}
	tasks[9].Status = planning.StatusPending
	tasks[8].Status = planning.StatusSkipped

	advice := planning.CheckContinuation(p, tasks, date("2026-03-28"))
	if !advice.Ready {
		t.Errorf("expected ready at 80%% with 3 days left: %+v", advice)
	}

	advice = planning.CheckContinuation(p, tasks, date("2026-03-10"))
	if advice.Ready {
		t.Errorf("expected not ready with 21 days left: %+v", advice)
	}

	advice = planning.CheckContinuation(p, tasks[:1], date("2026-04-02"))
	if !advice.Ready {
		t.Errorf("expected ready after plan end: %+v", advice)
	}
}

func TestSummarizeCategories(t *testing.T) {
	tasks := []planning.Task{
		{Category: planning.CategoryFinance, Status: planning.StatusDone},
		{Category: planning.CategoryFinance, Status: planning.StatusDone},
		{Category: planning.CategoryMarketing, Status: planning.StatusSkipped},
		{Category: planning.CategoryMarketing, Status: planning.StatusPending},
	}
	stats := planning.SummarizeCategories(tasks)
	if len(stats) != 2 || stats[0].Category != planning.CategoryFinance {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	strong, weak := planning.StrengthsAndWeaknesses(stats)
	if len(strong) != 1 || strong[0] != planning.CategoryFinance {
		t.Errorf("unexpected strengths %v", strong)
	}
	if len(weak) != 1 || weak[0] != planning.CategoryMarketing {
		t.Errorf("unexpected weaknesses %v", weak)
	}
}
