package cli

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/spf13/cobra"
)

var progressJSON bool

var streakCmd = &cobra.Command{
	Use:   "streak <user>",
	Short: "Show the user's current streak of active days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			streak, err := services.Achievements.GetCurrentStreak(cmd.Context(), args[0])
			if err != nil {
				return MapError(err)
			}
			if progressJSON {
				return printJSON(map[string]int{"current_streak": streak})
			}
			fmt.Printf("Current streak: %d days\n", streak)
			return nil
		})
	},
}

var badgesCmd = &cobra.Command{
	Use:   "badges <user>",
	Short: "List the badges a user has earned",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			list, err := services.Achievements.List(cmd.Context(), args[0])
			if err != nil {
				return MapError(err)
			}
			if progressJSON {
				return printJSON(list)
			}
			fmt.Println(titleStyle.Render(fmt.Sprintf("Badges (%d)", len(list))))
			for _, a := range list {
				fmt.Printf("  %s %s %s\n", badgeStyle.Render("★ "+a.Title),
					mutedStyle.Render(a.EarnedAt.Format("2006-01-02")), a.Description)
			}
			if len(list) == 0 {
				fmt.Println("  (none yet)")
			}
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <user>",
	Short: "Show progress analytics for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		userID := args[0]
		return withServices(func(services *wiring.AppServices) error {
			summary, err := services.Analytics.Summary(ctx, userID)
			if err != nil {
				return MapError(err)
			}
			weeks, err := services.Analytics.WeeklyTrend(ctx, userID)
			if err != nil {
				return MapError(err)
			}
			categories, err := services.Analytics.CategoryBreakdown(ctx, userID)
			if err != nil {
				return MapError(err)
			}
			phases, err := services.Analytics.PlanComparison(ctx, userID)
			if err != nil {
				return MapError(err)
			}
			forecast, plan, err := services.Analytics.Forecast(ctx, userID)
			if err != nil {
				return MapError(err)
			}

			if progressJSON {
				return printJSON(map[string]any{
					"summary":    summary,
					"weeks":      weeks,
					"categories": categories,
					"plans":      phases,
					"forecast":   forecast,
				})
			}

			fmt.Println(titleStyle.Render("Progress"))
			fmt.Printf("  Tasks done:      %d\n", summary.TotalDone)
			fmt.Printf("  Streak:          %d days (longest %d)\n", summary.CurrentStreak, summary.LongestStreak)
			fmt.Printf("  Badges:          %d\n", summary.Badges)
			fmt.Printf("  Time invested:   %d min\n", summary.MinutesInvested)
			fmt.Printf("  Active plan:     phase %d, %d%% complete, %d days left\n",
				summary.ActivePlanPhase, summary.ActivePlanPct, summary.DaysRemaining)
			fmt.Printf("  Plans completed: %d of %d\n", summary.PlansCompleted, summary.PlansAttempted)

			fmt.Println(titleStyle.Render("Pace"))
			fmt.Printf("  Velocity:        %.2f tasks/day (%s)\n", forecast.Velocity, forecast.Trend.Direction)
			switch {
			case forecast.RemainingTasks == 0:
				fmt.Println("  Nothing left to do in this plan")
			case forecast.FinishDate.IsZero():
				fmt.Printf("  %d tasks left; complete one to start a projection\n", forecast.RemainingTasks)
			default:
				status := statusSkipped.Render("behind")
				if forecast.OnTrack(plan.EndDate) {
					status = statusDone.Render("on track")
				}
				fmt.Printf("  Projected:       %s (%.0f-%.0f days), plan ends %s, %s\n",
					clock.FormatDate(forecast.FinishDate), forecast.Interval.Low, forecast.Interval.High,
					clock.FormatDate(plan.EndDate), status)
			}

			if len(weeks) > 0 {
				fmt.Println(titleStyle.Render("Weekly trend"))
				for _, w := range weeks {
					fmt.Printf("  Week %d  %s  %-20s %3d%%  (%d/%d, %d skipped)\n", w.Week, clock.FormatDate(w.Start),
						bar(w.Rate), w.Rate, w.Done, w.Total, w.Skipped)
				}
			}
			if len(categories) > 0 {
				fmt.Println(titleStyle.Render("Categories"))
				for _, c := range categories {
					fmt.Printf("  %-10s %-20s %3.0f%%  (%d/%d)\n", c.Category, bar(int(c.Rate()*100)), c.Rate()*100, c.Done, c.Total)
				}
			}
			return nil
		})
	},
}

// bar draws a 20-cell progress bar for pct in 0..100.
func bar(pct int) string {
	n := pct / 5
	if n < 0 {
		n = 0
	}
	if n > 20 {
		n = 20
	}
	return strings.Repeat("█", n) + strings.Repeat("░", 20-n)
}

func init() {
	for _, c := range []*cobra.Command{streakCmd, badgesCmd, statsCmd} {
		c.Flags().BoolVar(&progressJSON, "json", false, "Output in JSON format")
		RootCmd.AddCommand(c)
	}
}
