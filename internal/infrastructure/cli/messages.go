package cli

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

var replyCmd = &cobra.Command{
	Use:   "reply <user> <text...>",
	Short: "Handle an inbound reply such as DONE, SKIP 2 or HELP",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")
		return withServices(func(services *wiring.AppServices) error {
			reply, err := services.Inbound.HandleReply(cmd.Context(), args[0], text)
			fmt.Println(reply.Text)
			if err != nil {
				return MapError(err)
			}
			return nil
		})
	},
}

var deliveryCmd = &cobra.Command{
	Use:   "delivery",
	Short: "Inspect and update outbound message delivery",
}

var deliveryError string

var deliveryStatusCmd = &cobra.Command{
	Use:   "status <provider-id> <status>",
	Short: "Apply a provider delivery callback (queued, sent, delivered, failed, bounced)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			if err := services.Messages.ApplyStatus(cmd.Context(), args[0], args[1], deliveryError); err != nil {
				return MapError(fmt.Errorf("failed to update delivery status: %w", err))
			}
			fmt.Printf("Message %s marked %s.\n", args[0], strings.ToUpper(args[1]))
			return nil
		})
	},
}

var (
	deliveryLimit int
	deliveryJSON  bool
)

var deliveryHistoryCmd = &cobra.Command{
	Use:   "history <user>",
	Short: "List the most recent messages for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			logs, err := services.Messages.History(cmd.Context(), args[0], deliveryLimit)
			if err != nil {
				return MapError(err)
			}
			if deliveryJSON {
				return printJSON(logs)
			}
			for _, m := range logs {
				line := fmt.Sprintf("  %s %-8s %-5s %-9s %s", m.CreatedAt.Format("2006-01-02 15:04"), m.Direction, m.Channel, m.Status, m.ProviderID)
				if m.Error != "" {
					line += " " + mutedStyle.Render(m.Error)
				}
				fmt.Println(line)
			}
			if len(logs) == 0 {
				fmt.Println("  (none)")
			}
			return nil
		})
	},
}

func init() {
	deliveryStatusCmd.Flags().StringVar(&deliveryError, "error", "", "Provider error text")
	deliveryHistoryCmd.Flags().IntVar(&deliveryLimit, "limit", 20, "Maximum messages to list")
	deliveryHistoryCmd.Flags().BoolVar(&deliveryJSON, "json", false, "Output in JSON format")

	deliveryCmd.AddCommand(deliveryStatusCmd)
	deliveryCmd.AddCommand(deliveryHistoryCmd)
	RootCmd.AddCommand(deliveryCmd)
	RootCmd.AddCommand(replyCmd)
}
