package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/internal/repository/gormstore"
)

// Store is the opened storage backend and the repositories bound to it.
type Store struct {
	Driver string
	Repos  repository.Set

	postgres *Postgres
	sqlite   *SQLite
	logger   *zap.Logger
}

// OpenStore opens the backend selected by cfg.Storage.Driver. The sqlite
// backend always ensures its schema; postgres does when RunMigrations is set.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	store := &Store{Driver: cfg.Storage.Driver, logger: logger}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Storage.RunMigrations {
			if err := RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		store.postgres = pg
		store.Repos = repository.NewPostgresSet(pg.Pool)
	case config.DriverSQLite:
		lite, err := NewSQLite(ctx, cfg.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		store.sqlite = lite
		store.Repos = gormstore.NewSet(lite.DB)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	return store, nil
}

// Migrate applies the schema explicitly.
func (s *Store) Migrate(ctx context.Context) error {
	if s.postgres != nil {
		return RunMigrations(ctx, s.postgres.Pool, s.logger)
	}
	return gormstore.Migrate(ctx, s.sqlite.DB)
}

// Ping checks the active backend.
func (s *Store) Ping(ctx context.Context) error {
	if s.postgres != nil {
		return s.postgres.Ping(ctx)
	}
	return s.sqlite.Ping(ctx)
}

// Close releases the active backend.
func (s *Store) Close() {
	s.postgres.Close()
	s.sqlite.Close()
}
