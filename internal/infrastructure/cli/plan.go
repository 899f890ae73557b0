package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/launchpath/pkg/application"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate, adapt and inspect launch plans",
}

var (
	planDays  int
	planStart string
	planJSON  bool
)

var planGenerateCmd = &cobra.Command{
	Use:   "generate <user>",
	Short: "Generate a new ACTIVE plan for a user, replacing the current one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := application.GenerateRequest{UserID: args[0], DurationDays: planDays}
		if planStart != "" {
			start, err := clock.ParseDate(planStart)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			req.StartDate = start
		}

		return withServices(func(services *wiring.AppServices) error {
			plan, err := services.Orchestrator.Generate(cmd.Context(), req)
			if err != nil {
				return MapError(fmt.Errorf("failed to generate plan: %w", err))
			}
			if planJSON {
				return printJSON(plan)
			}
			fmt.Printf("Generated %s with %d tasks (source: %s).\n", plan.ID, len(plan.Tasks), plan.Metadata["source"])
			fmt.Println(planHeader(plan))
			return nil
		})
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <user>",
	Short: "Show the user's ACTIVE plan and its tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			plan, err := services.Plans.ActivePlan(cmd.Context(), args[0])
			if err != nil {
				return MapError(err)
			}
			if planJSON {
				return printJSON(plan)
			}
			fmt.Println(planHeader(plan))
			fmt.Println(taskTable(plan.Tasks))
			return nil
		})
	},
}

var planHistoryCmd = &cobra.Command{
	Use:   "history <user>",
	Short: "List every plan the user has had",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			plans, err := services.Plans.ListPlans(cmd.Context(), args[0])
			if err != nil {
				return MapError(err)
			}
			if planJSON {
				return printJSON(plans)
			}
			for _, p := range plans {
				fmt.Printf("  %s  phase %d  %-9s %s → %s  %s\n", p.ID, p.Phase, p.Status,
					clock.FormatDate(p.StartDate), clock.FormatDate(p.EndDate), p.Title)
			}
			if len(plans) == 0 {
				fmt.Println("  (none)")
			}
			return nil
		})
	},
}

var planAdjustReason string

var planAdjustCmd = &cobra.Command{
	Use:   "adjust <plan>",
	Short: "Ask the reasoning service to reshape the remaining PENDING tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			res, err := services.Orchestrator.Adjust(cmd.Context(), args[0], planAdjustReason)
			if err != nil {
				return MapError(fmt.Errorf("failed to adjust plan: %w", err))
			}
			if planJSON {
				return printJSON(res)
			}
			printAdjustment(res)
			return nil
		})
	},
}

func printAdjustment(res *application.AdjustmentResult) {
	if !res.Applied {
		msg := "no changes applied"
		if res.Error != "" {
			msg += ": " + res.Error
		}
		fmt.Printf("Plan %s: %s.\n", res.PlanID, msg)
		return
	}
	fmt.Printf("Plan %s adjusted (%s): %d removed, %d rescheduled, %d added, %d ignored.\n",
		res.PlanID, res.Reason, len(res.Removed), len(res.Rescheduled), len(res.Added), len(res.Ignored))
	if res.Reasoning != "" {
		fmt.Println(mutedStyle.Render(res.Reasoning))
	}
	if res.Diff != "" {
		fmt.Println(strings.TrimRight(res.Diff, "\n"))
	}
}

var planContinueCmd = &cobra.Command{
	Use:   "continue <plan>",
	Short: "Generate the next phase from the outcomes of a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			next, err := services.Orchestrator.Continue(cmd.Context(), args[0])
			if err != nil {
				return MapError(fmt.Errorf("failed to continue plan: %w", err))
			}
			if planJSON {
				return printJSON(next)
			}
			fmt.Printf("Started phase %d: %s with %d tasks.\n", next.Phase, next.ID, len(next.Tasks))
			fmt.Println(planHeader(next))
			return nil
		})
	},
}

var planReadinessCmd = &cobra.Command{
	Use:   "readiness <user>",
	Short: "Check whether the user's ACTIVE plan is ready for the next phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			plan, advice, err := services.Orchestrator.Readiness(cmd.Context(), args[0])
			if err != nil {
				return MapError(err)
			}
			if planJSON {
				return printJSON(advice)
			}
			state := "not ready"
			if advice.Ready {
				state = "ready"
			}
			fmt.Printf("Plan %s is %s to continue: %d%% complete, %d days remaining.\n",
				plan.ID, state, advice.CompletionPct, advice.DaysRemaining)
			if advice.Reason != "" {
				fmt.Println(mutedStyle.Render(advice.Reason))
			}
			return nil
		})
	},
}

type planStatusChange func(ctx context.Context, services *wiring.AppServices, planID string) (*planning.Plan, error)

func createPlanStatusCommand(use, short string, change planStatusChange) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <plan>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(services *wiring.AppServices) error {
				plan, err := change(cmd.Context(), services, args[0])
				if err != nil {
					return MapError(fmt.Errorf("failed to %s plan: %w", use, err))
				}
				fmt.Printf("Plan %s is now %s.\n", plan.ID, plan.Status)
				return nil
			})
		},
	}
}

func init() {
	planGenerateCmd.Flags().IntVar(&planDays, "days", 0, "Plan duration in days (defaults to the profile or config)")
	planGenerateCmd.Flags().StringVar(&planStart, "start", "", "Start date YYYY-MM-DD (defaults to the user's today)")
	planAdjustCmd.Flags().StringVar(&planAdjustReason, "reason", "manual request", "Reason passed to the reasoning service")

	for _, c := range []*cobra.Command{planGenerateCmd, planShowCmd, planHistoryCmd, planAdjustCmd, planContinueCmd, planReadinessCmd} {
		c.Flags().BoolVar(&planJSON, "json", false, "Output in JSON format")
		planCmd.AddCommand(c)
	}

	planCmd.AddCommand(createPlanStatusCommand("pause", "Pause an ACTIVE plan",
		func(ctx context.Context, s *wiring.AppServices, id string) (*planning.Plan, error) { return s.Plans.Pause(ctx, id) }))
	planCmd.AddCommand(createPlanStatusCommand("resume", "Resume a PAUSED plan",
		func(ctx context.Context, s *wiring.AppServices, id string) (*planning.Plan, error) { return s.Plans.Resume(ctx, id) }))
	planCmd.AddCommand(createPlanStatusCommand("complete", "Complete an ACTIVE plan with no open tasks",
		func(ctx context.Context, s *wiring.AppServices, id string) (*planning.Plan, error) { return s.Plans.Complete(ctx, id) }))

	RootCmd.AddCommand(planCmd)
}
