package wiring

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/config"
	"github.com/felixgeelhaar/launchpath/pkg/application"
	"github.com/felixgeelhaar/launchpath/pkg/storage"
)

// Workspace bundles core infrastructure dependencies.
type Workspace struct {
	DataDir string
	Config  *config.Config
	Store   *storage.Store
	Audit   *application.AuditService
}

// OpenWorkspace loads the configuration in dataDir and opens the
// database it points at, creating both as needed.
func OpenWorkspace(dataDir string) (*Workspace, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.DatabasePath(dataDir))
	if err != nil {
		return nil, err
	}
	return &Workspace{
		DataDir: dataDir,
		Config:  cfg,
		Store:   store,
		Audit:   application.NewAuditService(store),
	}, nil
}

func (w *Workspace) Close() error {
	return w.Store.Close()
}
