package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

// PlanService manages the plan status lifecycle outside of generation.
type PlanService struct {
	uow    domain.UnitOfWork
	audit  domain.AuditLogger
	logger *slog.Logger
}

func NewPlanService(uow domain.UnitOfWork, audit domain.AuditLogger, logger *slog.Logger) *PlanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanService{uow: uow, audit: audit, logger: logger}
}

// ActivePlan returns the user's ACTIVE plan with its tasks loaded.
func (s *PlanService) ActivePlan(ctx context.Context, userID string) (*planning.Plan, error) {
	plan, err := s.uow.Plans().ActivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withTasks(ctx, plan)
}

// GetPlan returns a plan with its tasks loaded.
func (s *PlanService) GetPlan(ctx context.Context, planID string) (*planning.Plan, error) {
	plan, err := s.uow.Plans().GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return s.withTasks(ctx, plan)
}

func (s *PlanService) ListPlans(ctx context.Context, userID string) ([]planning.Plan, error) {
	return s.uow.Plans().ListPlans(ctx, userID)
}

func (s *PlanService) Pause(ctx context.Context, planID string) (*planning.Plan, error) {
	return s.changeStatus(ctx, planID, planning.PlanPaused, nil)
}

// Resume reactivates a paused plan. Any other ACTIVE plan of the user
// is replaced.
func (s *PlanService) Resume(ctx context.Context, planID string) (*planning.Plan, error) {
	return s.changeStatus(ctx, planID, planning.PlanActive, func(r domain.Repositories, p *planning.Plan) error {
		_, err := replaceActivePlan(ctx, r.Plans(), p.UserID)
		return err
	})
}

// Complete closes an ACTIVE plan. No task may still be PENDING or SENT.
func (s *PlanService) Complete(ctx context.Context, planID string) (*planning.Plan, error) {
	return s.changeStatus(ctx, planID, planning.PlanCompleted, func(r domain.Repositories, p *planning.Plan) error {
		tasks, err := r.Plans().ListTasks(ctx, p.ID, planning.TaskFilter{})
		if err != nil {
			return err
		}
		open := 0
		for _, t := range tasks {
			if t.Status.IsOutstanding() {
				open++
			}
		}
		if open > 0 {
			return fmt.Errorf("%w: %d tasks still open", planning.ErrPlanNotResolved, open)
		}
		return nil
	})
}

func (s *PlanService) changeStatus(ctx context.Context, planID string, target planning.PlanStatus, before func(domain.Repositories, *planning.Plan) error) (*planning.Plan, error) {
	var plan *planning.Plan
	var from planning.PlanStatus
	err := s.uow.Atomically(ctx, func(r domain.Repositories) error {
		p, err := r.Plans().GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		from = p.Status
		if !p.Status.CanTransitionTo(target) {
			return p.TransitionTo(target)
		}
		if before != nil {
			if err := before(r, p); err != nil {
				return err
			}
		}
		if err := p.TransitionTo(target); err != nil {
			return err
		}
		plan = p
		return r.Plans().UpdatePlan(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("plan status changed", "plan_id", planID, "from", from, "to", target)
	logAudit(ctx, s.audit, s.logger, domain.ActionPlanStatus, domain.ActorUser, map[string]interface{}{
		"plan_id": planID,
		"from":    string(from),
		"to":      string(target),
	})
	return plan, nil
}

func (s *PlanService) withTasks(ctx context.Context, plan *planning.Plan) (*planning.Plan, error) {
	tasks, err := s.uow.Plans().ListTasks(ctx, plan.ID, planning.TaskFilter{})
	if err != nil {
		return nil, err
	}
	plan.Tasks = tasks
	return plan, nil
}
