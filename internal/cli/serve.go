package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/servicedesk/internal/api/http"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/session"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Start the JSON API over the configured store. Sessions live in Redis when REDIS_ADDR is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	rt, err := openRuntime(ctx, opts, logToStdout)
	if err != nil {
		return err
	}
	defer rt.Close()

	redis := persistence.NewRedis(ctx, rt.cfg.Redis, rt.logger)
	defer redis.Close()

	var sessions session.Registry
	if redis != nil {
		sessions = session.NewRedisRegistry(redis.Client)
	} else {
		sessions = session.NewMemoryRegistry()
	}

	app := httptransport.NewApp(httptransport.ServerDependencies{
		Config:   rt.cfg,
		Services: rt.services,
		Store:    rt.store,
		Redis:    redis,
		Sessions: sessions,
		Metrics:  observability.NewMetrics(),
		Logger:   rt.logger,
	})

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("http server listening",
			zap.String("addr", rt.cfg.App.Addr()),
			zap.String("storage", rt.store.Driver))
		errCh <- app.Listen(rt.cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.logger.Info("shutting down")
	return app.ShutdownWithTimeout(shutdownTimeout)
}
