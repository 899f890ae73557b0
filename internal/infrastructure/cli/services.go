package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/wiring"
)

func loadServices(root string) (*wiring.AppServices, error) {
	services, loadErr := wiring.BuildAppServices(root, slog.Default())
	if services == nil {
		return nil, fmt.Errorf("failed to build services: %w", loadErr)
	}
	if loadErr != nil {
		fmt.Printf("Warning: %v\n", loadErr)
	}
	return services, nil
}

func getDataDir() (string, error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return "", fmt.Errorf("invalid data dir %q: %w", dataDir, err)
	}
	info, err := os.Stat(abs)
	if err == nil && !info.IsDir() {
		return "", fmt.Errorf("data dir %q is not a directory", abs)
	}
	return abs, nil
}

// withServices opens the workspace for the duration of fn.
func withServices(fn func(*wiring.AppServices) error) error {
	root, err := getDataDir()
	if err != nil {
		return err
	}
	services, err := loadServices(root)
	if err != nil {
		return err
	}
	defer func() { _ = services.Close() }()
	return fn(services)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
