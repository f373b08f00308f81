package providers

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/larderapp/larder-server/internal/config"
	"github.com/larderapp/larder-server/internal/logger"
	"github.com/larderapp/larder-server/internal/store"
	"github.com/larderapp/larder-server/internal/store/kv"
	"github.com/larderapp/larder-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// OpenStore opens the configured backend under the data path.
func OpenStore(cfg *config.Config, log *slog.Logger) (store.Store, string, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		path := filepath.Join(cfg.Storage.DataPath, "larder.db")
		s, err := sqlite.Open(path, log)
		return s, path, err
	case config.BackendBadger, "":
		path := filepath.Join(cfg.Storage.DataPath, "db")
		s, err := kv.Open(path, log)
		return s, path, err
	default:
		return nil, "", fmt.Errorf("unknown store backend %q", cfg.Storage.Backend)
	}
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, path, err := OpenStore(cfg, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend, "path", path)

	return &StoreHandle{Store: db}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
