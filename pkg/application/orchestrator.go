package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
	"github.com/felixgeelhaar/launchpath/pkg/domain/resource"
	"github.com/felixgeelhaar/launchpath/pkg/prompt"
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultPlanDurationDays applies when neither the request nor the
// business profile names a duration.
const DefaultPlanDurationDays = 30

// continuationPulseLimit is the number of weekly pulses offered to the
// continuation prompt.
const continuationPulseLimit = 4

// Generation sources recorded in plan metadata.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// OrchestratorConfig tunes plan generation and adjustment.
type OrchestratorConfig struct {
	DefaultDurationDays int
	// MaxRemovalRatio caps the share of PENDING tasks a single adjustment
	// may remove. Zero disables the cap.
	MaxRemovalRatio float64
}

// GenerateRequest asks for a fresh plan. Zero fields fall back to the
// profile and configuration defaults.
type GenerateRequest struct {
	UserID       string
	ProfileID    string
	DurationDays int
	StartDate    time.Time
}

// AdjustmentResult reports what an adjustment changed.
type AdjustmentResult struct {
	PlanID      string   `json:"plan_id"`
	Applied     bool     `json:"applied"`
	Reason      string   `json:"reason"`
	Reasoning   string   `json:"reasoning,omitempty"`
	Removed     []string `json:"removed,omitempty"`
	Rescheduled []string `json:"rescheduled,omitempty"`
	Added       []string `json:"added,omitempty"`
	// Ignored lists task ids the model referenced that were not PENDING
	// in this plan, or removals dropped by the removal cap.
	Ignored []string `json:"ignored,omitempty"`
	Diff    string   `json:"diff,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Orchestrator creates, adjusts and continues plans through the
// reasoning service.
type Orchestrator struct {
	uow      domain.UnitOfWork
	reasoner ai.Reasoner
	renderer prompt.Renderer
	matcher  *resource.Matcher
	clock    clock.Clock
	tz       *clock.Resolver
	audit    domain.AuditLogger
	config   OrchestratorConfig
	logger   *slog.Logger
}

func NewOrchestrator(
	uow domain.UnitOfWork,
	reasoner ai.Reasoner,
	renderer prompt.Renderer,
	matcher *resource.Matcher,
	clk clock.Clock,
	tz *clock.Resolver,
	audit domain.AuditLogger,
	config OrchestratorConfig,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if matcher == nil {
		matcher = resource.NewMatcher(nil)
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if tz == nil {
		tz = clock.NewResolver()
	}
	if config.DefaultDurationDays <= 0 {
		config.DefaultDurationDays = DefaultPlanDurationDays
	}
	return &Orchestrator{
		uow:      uow,
		reasoner: reasoner,
		renderer: renderer,
		matcher:  matcher,
		clock:    clk,
		tz:       tz,
		audit:    audit,
		config:   config,
		logger:   logger,
	}
}

// Generate builds a new ACTIVE plan for the user, replacing any current
// one. Reasoning failures fall back to a fixed starter plan.
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) (*planning.Plan, error) {
	bp, err := o.uow.Profiles().GetBusinessProfile(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("generate plan for %s: %w", req.UserID, err)
	}

	duration := o.durationFor(req.DurationDays, bp)
	start := req.StartDate
	if start.IsZero() {
		if start, err = localToday(ctx, o.uow.Profiles(), o.tz, o.clock.Now(), req.UserID); err != nil {
			return nil, err
		}
	}
	profileID := req.ProfileID
	if profileID == "" {
		profileID = bp.ID
	}

	p, err := o.renderer.PlanGeneration(prompt.PlanGenerationInput{Profile: *bp, DurationDays: duration})
	if err != nil {
		return nil, err
	}
	drafts, meta := o.generateDrafts(ctx, p)

	plan := planning.NewPlan(req.UserID, profileID, duration, start)
	plan.Metadata = meta

	err = o.uow.Atomically(ctx, func(r domain.Repositories) error {
		replaced, err := replaceActivePlan(ctx, r.Plans(), req.UserID)
		if err != nil {
			return err
		}
		if replaced != "" {
			o.logger.Info("replacing active plan", "user_id", req.UserID, "plan_id", replaced)
		}
		if err := r.Plans().CreatePlan(ctx, plan); err != nil {
			return err
		}
		tasks, err := o.insertDrafts(ctx, r, plan, drafts, bp.BusinessType)
		if err != nil {
			return err
		}
		plan.Tasks = tasks
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist generated plan: %w", err)
	}

	o.logger.Info("plan generated", "user_id", req.UserID, "plan_id", plan.ID, "tasks", len(plan.Tasks), "source", meta["source"])
	logAudit(ctx, o.audit, o.logger, domain.ActionPlanGenerated, domain.ActorAI, map[string]interface{}{
		"user_id":    req.UserID,
		"plan_id":    plan.ID,
		"task_count": len(plan.Tasks),
		"source":     meta["source"],
	})
	return plan, nil
}

// Adjust asks the reasoning service to reshape the PENDING part of a
// plan. A reasoning failure leaves the plan untouched and is reported
// with Applied=false and a nil error.
func (o *Orchestrator) Adjust(ctx context.Context, planID, reason string) (*AdjustmentResult, error) {
	result := &AdjustmentResult{PlanID: planID, Reason: reason}

	plan, err := o.uow.Plans().GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != planning.PlanActive {
		result.Error = fmt.Sprintf("plan is %s", plan.Status)
		return result, nil
	}
	tasks, err := o.uow.Plans().ListTasks(ctx, planID, planning.TaskFilter{})
	if err != nil {
		return nil, err
	}
	bp, err := o.businessProfile(ctx, plan.UserID)
	if err != nil {
		return nil, err
	}

	in := prompt.PlanAdjustmentInput{Profile: bp, Reason: reason}
	if o.config.MaxRemovalRatio > 0 {
		in.MaxRemovalPct = int(math.Round(o.config.MaxRemovalRatio * 100))
	}
	for _, t := range tasks {
		switch t.Status {
		case planning.StatusDone:
			in.Completed = append(in.Completed, t.Title)
		case planning.StatusSkipped:
			in.Skipped = append(in.Skipped, t.Title)
		case planning.StatusPending:
			in.Remaining = append(in.Remaining, prompt.RemainingTask{ID: t.ID, Title: t.Title, DayNumber: t.DayNumber, Category: t.Category})
		}
	}

	p, err := o.renderer.PlanAdjustment(in)
	if err != nil {
		return nil, err
	}
	adj, err := o.reasoner.AdjustPlan(ctx, p)
	if err != nil {
		o.logger.Warn("plan adjustment failed, leaving plan unchanged", "plan_id", planID, "error", err)
		result.Error = err.Error()
		return result, nil
	}
	result.Reasoning = adj.Reasoning

	var after []planning.Task
	err = o.uow.Atomically(ctx, func(r domain.Repositories) error {
		// Rebuild from scratch so a retried callback starts clean.
		result.Removed, result.Rescheduled, result.Added, result.Ignored = nil, nil, nil, nil

		current, err := r.Plans().ListTasks(ctx, planID, planning.TaskFilter{})
		if err != nil {
			return err
		}
		pending := make(map[string]*planning.Task)
		for i := range current {
			if current[i].Status == planning.StatusPending {
				pending[current[i].ID] = &current[i]
			}
		}

		removals, ignored := o.capRemovals(adj.RemoveTaskIDs, pending)
		result.Ignored = append(result.Ignored, ignored...)
		for _, id := range removals {
			if err := r.Plans().DeleteTask(ctx, id); err != nil {
				return err
			}
			delete(pending, id)
			result.Removed = append(result.Removed, id)
		}

		for _, rs := range adj.Reschedule {
			t, ok := pending[rs.TaskID]
			if !ok {
				result.Ignored = append(result.Ignored, rs.TaskID)
				continue
			}
			day := rs.NewDayNumber
			if day < 1 {
				day = 1
			}
			t.DayNumber = day
			t.DueDate = plan.DueDateFor(day)
			if err := t.MarkRescheduled(t.DueDate, planning.RescheduledByAdjustment); err != nil {
				return err
			}
			if err := r.Plans().UpdateTask(ctx, t); err != nil {
				return err
			}
			delete(pending, t.ID)
			result.Rescheduled = append(result.Rescheduled, t.ID)
		}

		added, err := o.insertDrafts(ctx, r, plan, adj.NewTasks, bp.BusinessType)
		if err != nil {
			return err
		}
		for _, t := range added {
			result.Added = append(result.Added, t.ID)
		}

		after, err = r.Plans().ListTasks(ctx, planID, planning.TaskFilter{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("apply adjustment to plan %s: %w", planID, err)
	}

	result.Applied = true
	result.Diff = layoutDiff(plan.ID, tasks, after)
	before, adjusted := *plan, *plan
	before.Tasks, adjusted.Tasks = tasks, after

	o.logger.Info("plan adjusted", "plan_id", planID, "removed", len(result.Removed), "rescheduled", len(result.Rescheduled), "added", len(result.Added))
	logAudit(ctx, o.audit, o.logger, domain.ActionPlanAdjusted, domain.ActorAI, map[string]interface{}{
		"plan_id":     planID,
		"reason":      reason,
		"removed":     len(result.Removed),
		"rescheduled": len(result.Rescheduled),
		"added":       len(result.Added),
		"diff":        result.Diff,

		"fingerprint_before": before.Fingerprint(),
		"fingerprint_after":  adjusted.Fingerprint(),
	})
	return result, nil
}

// capRemovals keeps only PENDING ids and applies MaxRemovalRatio. Ids are
// considered in the order the model listed them.
func (o *Orchestrator) capRemovals(ids []string, pending map[string]*planning.Task) (keep, ignored []string) {
	limit := len(pending)
	if o.config.MaxRemovalRatio > 0 {
		limit = int(math.Floor(o.config.MaxRemovalRatio * float64(len(pending))))
	}
	seen := make(map[string]bool)
	for _, id := range ids {
		if _, ok := pending[id]; !ok || seen[id] {
			ignored = append(ignored, id)
			continue
		}
		seen[id] = true
		if len(keep) >= limit {
			o.logger.Warn("removal exceeds cap, keeping task", "task_id", id, "max_removal_ratio", o.config.MaxRemovalRatio)
			ignored = append(ignored, id)
			continue
		}
		keep = append(keep, id)
	}
	return keep, ignored
}

// CheckContinuation reports whether the plan is ready for its next phase
// as of the user's local today.
func (o *Orchestrator) CheckContinuation(ctx context.Context, planID string) (planning.ContinuationAdvice, error) {
	plan, err := o.uow.Plans().GetPlan(ctx, planID)
	if err != nil {
		return planning.ContinuationAdvice{}, err
	}
	tasks, err := o.uow.Plans().ListTasks(ctx, planID, planning.TaskFilter{})
	if err != nil {
		return planning.ContinuationAdvice{}, err
	}
	today, err := localToday(ctx, o.uow.Profiles(), o.tz, o.clock.Now(), plan.UserID)
	if err != nil {
		return planning.ContinuationAdvice{}, err
	}
	return planning.CheckContinuation(plan, tasks, today), nil
}

// Readiness evaluates the user's ACTIVE plan.
func (o *Orchestrator) Readiness(ctx context.Context, userID string) (*planning.Plan, planning.ContinuationAdvice, error) {
	plan, err := o.uow.Plans().ActivePlan(ctx, userID)
	if err != nil {
		return nil, planning.ContinuationAdvice{}, err
	}
	advice, err := o.CheckContinuation(ctx, plan.ID)
	return plan, advice, err
}

// Continue generates the next phase of a plan from the outcomes of the
// current one. The previous plan is REPLACED unless it already completed.
func (o *Orchestrator) Continue(ctx context.Context, planID string) (*planning.Plan, error) {
	prev, err := o.uow.Plans().GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if prev.Status == planning.PlanReplaced {
		return nil, fmt.Errorf("%w: plan %s was already replaced", planning.ErrInvalidPlanTransition, planID)
	}
	tasks, err := o.uow.Plans().ListTasks(ctx, planID, planning.TaskFilter{})
	if err != nil {
		return nil, err
	}
	bp, err := o.businessProfile(ctx, prev.UserID)
	if err != nil {
		return nil, err
	}
	pulses, err := o.uow.Profiles().RecentPulses(ctx, prev.UserID, continuationPulseLimit)
	if err != nil {
		return nil, err
	}
	today, err := localToday(ctx, o.uow.Profiles(), o.tz, o.clock.Now(), prev.UserID)
	if err != nil {
		return nil, err
	}

	duration := o.durationFor(0, &bp)
	strong, weak := planning.StrengthsAndWeaknesses(planning.SummarizeCategories(tasks))
	in := prompt.PlanContinuationInput{
		Profile:        bp,
		PreviousPhase:  prev.Phase,
		Phase:          prev.Phase + 1,
		DurationDays:   duration,
		TotalTasks:     len(tasks),
		CompletedCount: planning.CountByStatus(tasks, planning.StatusDone),
		SkippedCount:   planning.CountByStatus(tasks, planning.StatusSkipped),
		CompletionPct:  planning.CompletionPct(tasks),
		Strong:         strong,
		Weak:           weak,
		Pulses:         pulses,
	}
	for _, t := range tasks {
		switch t.Status {
		case planning.StatusDone:
			in.CompletedTitles = append(in.CompletedTitles, t.Title)
		case planning.StatusSkipped:
			in.SkippedTitles = append(in.SkippedTitles, t.Title)
		}
	}

	p, err := o.renderer.PlanContinuation(in)
	if err != nil {
		return nil, err
	}
	drafts, meta := o.generateDrafts(ctx, p)

	next := prev.NextPhase(duration, today)
	next.Metadata = meta

	err = o.uow.Atomically(ctx, func(r domain.Repositories) error {
		old, err := r.Plans().GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if old.Status != planning.PlanCompleted {
			if err := old.TransitionTo(planning.PlanReplaced); err != nil {
				return err
			}
			if err := r.Plans().UpdatePlan(ctx, old); err != nil {
				return err
			}
		}
		if _, err := replaceActivePlan(ctx, r.Plans(), prev.UserID); err != nil {
			return err
		}
		if err := r.Plans().CreatePlan(ctx, next); err != nil {
			return err
		}
		created, err := o.insertDrafts(ctx, r, next, drafts, bp.BusinessType)
		if err != nil {
			return err
		}
		next.Tasks = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist continuation of plan %s: %w", planID, err)
	}

	o.logger.Info("plan continued", "previous_plan_id", planID, "plan_id", next.ID, "phase", next.Phase)
	logAudit(ctx, o.audit, o.logger, domain.ActionPlanContinued, domain.ActorAI, map[string]interface{}{
		"user_id":          next.UserID,
		"plan_id":          next.ID,
		"previous_plan_id": planID,
		"phase":            next.Phase,
		"source":           meta["source"],
	})
	return next, nil
}

// generateDrafts calls the reasoning service and falls back to the
// starter tasks on any failure.
func (o *Orchestrator) generateDrafts(ctx context.Context, p ai.Prompt) ([]ai.TaskDraft, map[string]string) {
	meta := map[string]string{"generated_at": o.clock.Now().UTC().Format(time.RFC3339)}

	generated, err := o.reasoner.GenerateTasks(ctx, p)
	if err == nil && len(generated.Tasks) == 0 {
		err = &ai.MalformedResponseError{Service: "reasoning", Issues: []string{"empty task list"}}
	}
	if err != nil {
		o.logger.Warn("task generation failed, using fallback plan", "error", err)
		drafts := FallbackTasks()
		meta["source"] = SourceFallback
		meta["model"] = "fallback"
		meta["task_count"] = strconv.Itoa(len(drafts))
		return drafts, meta
	}

	meta["source"] = SourceAI
	meta["model"] = generated.Model
	meta["task_count"] = strconv.Itoa(len(generated.Tasks))
	return generated.Tasks, meta
}

// insertDrafts materializes drafts as PENDING tasks of plan and resolves
// their resources. It must run inside a transaction.
func (o *Orchestrator) insertDrafts(ctx context.Context, r domain.Repositories, plan *planning.Plan, drafts []ai.TaskDraft, businessType string) ([]planning.Task, error) {
	created := make([]planning.Task, 0, len(drafts))
	for _, d := range drafts {
		task := plan.NewTask(planning.TaskSpec{
			Title:            d.Title,
			Description:      d.Description,
			Category:         planning.Category(d.Category),
			Difficulty:       planning.Difficulty(d.Difficulty),
			EstimatedMinutes: d.EstimatedMinutes,
			DayNumber:        d.DayNumber,
			SortOrder:        d.SortOrder,
		})
		if err := r.Plans().CreateTask(ctx, task); err != nil {
			return nil, err
		}
		for _, rd := range d.Resources {
			if strings.TrimSpace(rd.Title) == "" {
				continue
			}
			if _, err := o.matcher.Attach(ctx, r.Resources(), task, businessType, rd); err != nil {
				return nil, fmt.Errorf("attach resource %q to task %s: %w", rd.Title, task.ID, err)
			}
		}
		created = append(created, *task)
	}
	planning.SortBySchedule(created)
	return created, nil
}

func (o *Orchestrator) durationFor(requested int, bp *profile.BusinessProfile) int {
	switch {
	case requested > 0:
		return requested
	case bp != nil && bp.PlanDurationDays > 0:
		return bp.PlanDurationDays
	default:
		return o.config.DefaultDurationDays
	}
}

// businessProfile returns the user's profile, or an empty one when none
// was recorded.
func (o *Orchestrator) businessProfile(ctx context.Context, userID string) (profile.BusinessProfile, error) {
	bp, err := o.uow.Profiles().GetBusinessProfile(ctx, userID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return profile.BusinessProfile{UserID: userID}, nil
	}
	if err != nil {
		return profile.BusinessProfile{}, err
	}
	return *bp, nil
}

// replaceActivePlan flips the user's ACTIVE plan, if any, to REPLACED and
// returns its id.
func replaceActivePlan(ctx context.Context, plans planning.Repository, userID string) (string, error) {
	active, err := plans.ActivePlan(ctx, userID)
	if errors.Is(err, planning.ErrNoActivePlan) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if err := active.TransitionTo(planning.PlanReplaced); err != nil {
		return "", err
	}
	return active.ID, plans.UpdatePlan(ctx, active)
}

// layoutDiff renders a unified diff of a plan's task layout.
func layoutDiff(planID string, before, after []planning.Task) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(taskLayout(before)),
		B:        difflib.SplitLines(taskLayout(after)),
		FromFile: planID + "@before",
		ToFile:   planID + "@after",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func taskLayout(tasks []planning.Task) string {
	sorted := append([]planning.Task(nil), tasks...)
	planning.SortBySchedule(sorted)
	var b strings.Builder
	for _, t := range sorted {
		fmt.Fprintf(&b, "%s day=%d %-11s %s\n", clock.FormatDate(t.DueDate), t.DayNumber, t.Status, t.Title)
	}
	return b.String()
}
