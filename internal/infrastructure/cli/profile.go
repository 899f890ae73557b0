package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/launchpath/pkg/application"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage users and business profiles",
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import users and business profiles from a YAML list",
	Long: `Import users and business profiles from a YAML list.

Each entry has a user section and optional business and pulses sections:

  - user:
      id: ana
      email: ana@example.com
      timezone: Europe/Lisbon
      onboarded: true
    business:
      business_name: Ana's Candles
      business_type: candles`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read profiles: %w", err)
		}
		var records []application.ProfileRecord
		if err := yaml.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("parse profiles: %w", err)
		}

		return withServices(func(services *wiring.AppServices) error {
			n, err := services.Profiles.Import(cmd.Context(), records)
			if err != nil {
				return MapError(fmt.Errorf("import stopped after %d profiles: %w", n, err))
			}
			fmt.Printf("Imported %d profiles.\n", n)
			return nil
		})
	},
}

var profileListJSON bool

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List onboarded users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			users, err := services.Profiles.ListOnboarded(cmd.Context())
			if err != nil {
				return MapError(err)
			}
			if profileListJSON {
				return printJSON(users)
			}

			fmt.Println(titleStyle.Render(fmt.Sprintf("Onboarded users (%d)", len(users))))
			for _, u := range users {
				fmt.Printf("  %-20s %-22s %-6s %02d:00 %s\n", u.ID, u.Timezone, u.PreferredChannel, u.DailySendHour, u.FirstName)
			}
			if len(users) == 0 {
				fmt.Println("  (none)")
			}
			return nil
		})
	},
}

func init() {
	profileListCmd.Flags().BoolVar(&profileListJSON, "json", false, "Output in JSON format")
	profileCmd.AddCommand(profileImportCmd)
	profileCmd.AddCommand(profileListCmd)
	RootCmd.AddCommand(profileCmd)
}
