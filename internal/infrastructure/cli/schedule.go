package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

// Scheduled commands run once per invocation and are meant for cron.

var (
	scheduleAt   string
	scheduleJSON bool
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Send today's tasks to every user whose send hour is now",
	Long: `Send today's tasks to every user whose send hour is now.

Run it hourly. Users are matched on their local hour, so each user
receives at most one message per day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := parseAt(scheduleAt)
		if err != nil {
			return err
		}
		return withServices(func(services *wiring.AppServices) error {
			report, err := services.Dispatch.RunPass(cmd.Context(), now)
			if err != nil {
				return fmt.Errorf("dispatch failed: %w", err)
			}
			if scheduleJSON {
				return printJSON(report)
			}
			fmt.Printf("Dispatch at %s: %d considered, %d sent, %d skipped, %d failed.\n",
				now.Format(time.RFC3339), report.Considered, report.Sent, report.Skipped, report.Failed)
			return nil
		})
	},
}

var adjustStaleCmd = &cobra.Command{
	Use:   "adjust-stale",
	Short: "Adjust ACTIVE plans whose recent tasks were all skipped",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			report, err := services.Stale.AdjustStalePlans(cmd.Context())
			if err != nil {
				return fmt.Errorf("stale plan sweep failed: %w", err)
			}
			if scheduleJSON {
				return printJSON(report)
			}
			fmt.Printf("Checked %d plans: %d adjusted, %d failed.\n", report.Checked, len(report.Adjusted), report.Failed)
			for i := range report.Adjusted {
				printAdjustment(&report.Adjusted[i])
			}
			return nil
		})
	},
}

var weeklySummaryCmd = &cobra.Command{
	Use:   "weekly-summary",
	Short: "Send the weekly progress recap to every onboarded user",
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := parseAt(scheduleAt)
		if err != nil {
			return err
		}
		return withServices(func(services *wiring.AppServices) error {
			report, err := services.Summary.SendWeeklySummaries(cmd.Context(), now)
			if err != nil {
				return fmt.Errorf("weekly summary failed: %w", err)
			}
			if scheduleJSON {
				return printJSON(report)
			}
			fmt.Printf("Weekly summary: %d considered, %d sent, %d skipped, %d failed.\n",
				report.Considered, report.Sent, report.Skipped, report.Failed)
			return nil
		})
	},
}

// parseAt reads an optional RFC 3339 --at override.
func parseAt(at string) (time.Time, error) {
	if at == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", at, err)
	}
	return t.UTC(), nil
}

func init() {
	dispatchCmd.Flags().StringVar(&scheduleAt, "at", "", "Run as of this RFC 3339 time instead of now")
	weeklySummaryCmd.Flags().StringVar(&scheduleAt, "at", "", "Run as of this RFC 3339 time instead of now")

	for _, c := range []*cobra.Command{dispatchCmd, adjustStaleCmd, weeklySummaryCmd} {
		c.Flags().BoolVar(&scheduleJSON, "json", false, "Output in JSON format")
		RootCmd.AddCommand(c)
	}
}
