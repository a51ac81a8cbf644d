package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/service"
	"github.com/spec-kit/servicedesk/internal/worker"
)

// runtime is the opened store plus the services bound to it.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *persistence.Store
	services *service.Services
}

type logTarget int

const (
	logToStdout logTarget = iota
	logToFile
)

func openRuntime(ctx context.Context, opts *rootOptions, target logTarget) (*runtime, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var logger *zap.Logger
	if target == logToFile {
		logger, err = observability.NewFileLogger(cfg.Logger)
	} else {
		logger, err = observability.NewLogger(cfg.Logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	store, err := persistence.OpenStore(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Driver, err)
	}

	enforcer, err := auth.NewEnforcer()
	if err != nil {
		store.Close()
		_ = logger.Sync()
		return nil, err
	}

	services := service.New(store.Repos, enforcer, cfg, logger)
	worker.StartEventWorkers(services)

	return &runtime{cfg: cfg, logger: logger, store: store, services: services}, nil
}

func (r *runtime) Close() {
	r.store.Close()
	_ = r.logger.Sync()
}
