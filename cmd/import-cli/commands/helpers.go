package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/puehres/product-import/internal/blobstore"
	"github.com/puehres/product-import/internal/config"
	"github.com/puehres/product-import/internal/observability"
	"github.com/puehres/product-import/internal/storage"
)

// loadConfig loads configuration from the --config flag or environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger creates a logger for CLI runs. CLI output goes through the ui
// package; the logger captures the structured trail.
func newLogger(cfg *config.Config) *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "import-cli",
	})
}

// openDatabase opens the configured database and applies migrations.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// openBlobStore opens the configured blob store.
func openBlobStore(cfg *config.Config) (blobstore.Store, error) {
	switch cfg.Blob.Driver {
	case "fs":
		return blobstore.NewFSStore(cfg.Blob.FS.Root)
	case "redis":
		return blobstore.NewRedisStore(blobstore.RedisConfig{
			Addr:     cfg.Blob.Redis.Addr,
			Password: cfg.Blob.Redis.Password,
			DB:       cfg.Blob.Redis.DB,
			PoolSize: cfg.Blob.Redis.PoolSize,
			TTL:      cfg.Blob.Redis.TTL,
		})
	case "memory":
		return blobstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", cfg.Blob.Driver)
	}
}
