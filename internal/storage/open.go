package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// OpenConfig selects and tunes the repository backend
type OpenConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Open migrates the database and returns the repository for cfg.Driver
func Open(ctx context.Context, cfg OpenConfig) (Repository, error) {
	switch cfg.Driver {
	case DriverPostgres:
		slog.Info("running database migrations", "driver", cfg.Driver)
		if err := MigrateFromDSN(ctx, DriverPostgres, cfg.DSN); err != nil {
			return nil, err
		}
		return NewPostgresRepository(ctx, PostgresConfig{
			DSN:          cfg.DSN,
			MaxOpenConns: int32(cfg.MaxOpenConns),
			MaxIdleConns: int32(cfg.MaxIdleConns),
		})

	case DriverSQLite:
		repo, err := NewSQLiteRepository(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		slog.Info("running database migrations", "driver", cfg.Driver)
		if err := RunMigrations(ctx, repo.DB(), DriverSQLite); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
