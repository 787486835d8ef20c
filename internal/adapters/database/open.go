package database

import (
	"context"
	"fmt"

	"github.com/zatekoja/ai-event-scanner/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/ai-event-scanner/backend/internal/infrastructure/clients/sqlite"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
)

// Store is a Client that owns its connection pool
type Store interface {
	Client
	Close() error
}

// Open connects to the configured driver and brings the schema up to date
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverPostgres, "":
		store, err = postgres.NewClient(ctx, cfg)
	case config.DriverSQLite:
		store, err = sqlite.NewClient(ctx, cfg.DatabaseDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, store); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}
