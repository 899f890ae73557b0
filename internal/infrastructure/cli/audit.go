package cli

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and verify the audit trail",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			fmt.Println("Verifying audit trail integrity...")
			violations, err := services.Audit.VerifyIntegrity(cmd.Context())
			if err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}

			if len(violations) == 0 {
				fmt.Println("Audit trail is intact and verified.")
				return nil
			}

			fmt.Printf("Found %d integrity violations:\n", len(violations))
			for _, v := range violations {
				fmt.Printf("  - %s\n", v)
			}
			return NewCLIError("audit trail has been tampered with", "", nil)
		})
	},
}

var (
	auditAction string
	auditJSON   bool
)

var auditTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "List audit events, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			events, err := services.Audit.GetTimeline(cmd.Context())
			if err != nil {
				return err
			}
			if auditAction != "" {
				filtered := events[:0]
				for _, e := range events {
					if strings.HasPrefix(e.Action, auditAction) {
						filtered = append(filtered, e)
					}
				}
				events = filtered
			}
			if auditJSON {
				return printJSON(events)
			}
			for _, e := range events {
				fmt.Printf("  %s  %-22s %-12s %v\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.Actor, e.Metadata)
			}
			return nil
		})
	},
}

func init() {
	auditTimelineCmd.Flags().StringVar(&auditAction, "action", "", "Only show actions with this prefix (e.g. plan.)")
	auditTimelineCmd.Flags().BoolVar(&auditJSON, "json", false, "Output in JSON format")
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTimelineCmd)
	RootCmd.AddCommand(auditCmd)
}
