// Package utils builds the storage driver selected by configuration.
package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/papercomputeco/chatstream/pkg/config"
	"github.com/papercomputeco/chatstream/pkg/storage"
	"github.com/papercomputeco/chatstream/pkg/storage/inmemory"
	"github.com/papercomputeco/chatstream/pkg/storage/postgres"
	"github.com/papercomputeco/chatstream/pkg/storage/sqlite"
)

// DefaultSQLiteFile is the database file created in the .chatstream/
// directory when no path is configured.
const DefaultSQLiteFile = "chatstream.db"

// ResolveSQLitePath returns the configured path, or the default database
// file inside dotDir.
func ResolveSQLitePath(configured, dotDir string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if dotDir == "" {
		return "", errors.New("no sqlite path configured and no .chatstream directory; pass --sqlite")
	}
	return filepath.Join(dotDir, DefaultSQLiteFile), nil
}

// NewDriver opens the store named by cfg.Driver.
func NewDriver(ctx context.Context, cfg config.StorageConfig, dotDir string, logger *slog.Logger) (storage.Driver, error) {
	switch cfg.Driver {
	case config.StorageMemory, "":
		logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	case config.StorageSQLite:
		path, err := ResolveSQLitePath(cfg.SQLitePath, dotDir)
		if err != nil {
			return nil, err
		}
		driver, err := sqlite.NewDriver(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		logger.Info("using SQLite storage", "path", path)
		return driver, nil

	case config.StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is required for the postgres driver")
		}
		driver, err := postgres.NewDriver(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL store: %w", err)
		}
		logger.Info("using PostgreSQL storage")
		return driver, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
