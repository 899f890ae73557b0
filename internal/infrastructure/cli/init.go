package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/config"
	"github.com/felixgeelhaar/launchpath/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

var (
	initForce    bool
	initProvider string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default launchpath.yaml and create the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getDataDir()
		if err != nil {
			return err
		}
		path := filepath.Join(root, config.FileName)
		if _, err := os.Stat(path); err == nil && !initForce {
			return NewCLIError("config already exists", "Pass --force to overwrite "+path, nil)
		}

		cfg := config.Default()
		if initProvider != "" {
			cfg.Reasoning.Provider = initProvider
			cfg.Formatting.Provider = initProvider
		}
		if err := config.Save(root, cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		ws, err := wiring.OpenWorkspace(root)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = ws.Close() }()

		fmt.Printf("Initialized LaunchPath in %s\n", root)
		fmt.Printf("  config:   %s\n", path)
		fmt.Printf("  database: %s\n", cfg.DatabasePath(root))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
	initCmd.Flags().StringVar(&initProvider, "provider", "", "AI provider for both roles (anthropic, openai, gemini, ollama, mock)")
	RootCmd.AddCommand(initCmd)
}
