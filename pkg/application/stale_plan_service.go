package application

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

// staleLookback is the number of recently resolved tasks inspected per plan.
const staleLookback = 5

// StaleSweepReport lists the plans a sweep adjusted.
type StaleSweepReport struct {
	Checked  int                `json:"checked"`
	Adjusted []AdjustmentResult `json:"adjusted,omitempty"`
	Failed   int                `json:"failed"`
}

// StalePlanService catches plans whose users stopped engaging through a
// channel that never triggered the inline skip check.
type StalePlanService struct {
	uow      domain.UnitOfWork
	adjuster PlanAdjuster
	policy   planning.SkipPolicy
	logger   *slog.Logger
}

func NewStalePlanService(uow domain.UnitOfWork, adjuster PlanAdjuster, policy planning.SkipPolicy, logger *slog.Logger) *StalePlanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StalePlanService{uow: uow, adjuster: adjuster, policy: policy, logger: logger}
}

// AdjustStalePlans adjusts every ACTIVE plan whose most recently resolved
// tasks start with a run of skips.
func (s *StalePlanService) AdjustStalePlans(ctx context.Context) (StaleSweepReport, error) {
	var report StaleSweepReport
	plans, err := s.uow.Plans().ListPlansByStatus(ctx, planning.PlanActive)
	if err != nil {
		return report, err
	}

	for _, p := range plans {
		report.Checked++
		recent, err := s.uow.Plans().RecentlyResolved(ctx, p.ID, staleLookback)
		if err != nil {
			report.Failed++
			s.logger.Error("could not load resolved tasks", "plan_id", p.ID, "error", err)
			continue
		}
		if !s.policy.ShouldTriggerAdjustment(recent) {
			continue
		}

		s.logger.Info("stale plan detected", "plan_id", p.ID, "leading_skips", planning.LeadingSkips(recent))
		res, err := s.adjuster.Adjust(ctx, p.ID, planning.AdjustmentReasonSkips)
		if err != nil {
			report.Failed++
			s.logger.Error("stale plan adjustment failed", "plan_id", p.ID, "error", err)
			continue
		}
		report.Adjusted = append(report.Adjusted, *res)
	}
	return report, nil
}
