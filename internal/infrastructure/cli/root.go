package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// DefaultDataDir holds the config file and database when --data-dir is not given.
const DefaultDataDir = ".launchpath"

var (
	dataDir string
	logJSON bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "launchpath",
	Version: Version,
	Short:   "Adaptive day-by-day launch plans for small businesses",
	Long: `LaunchPath coaches small-business owners through a multi-week action plan.
It generates dated tasks, sends each day's tasks over SMS and email,
interprets replies and adapts the plan when users fall behind.

Scheduled commands (dispatch, adjust-stale, weekly-summary) are meant
to be run from cron.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(logJSON))
	},
}

func newLogger(jsonOut bool) *slog.Logger {
	if jsonOut {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", cliErr.Hint)
	}
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", DefaultDataDir, "Directory holding launchpath.yaml and the database")
	RootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")
}
