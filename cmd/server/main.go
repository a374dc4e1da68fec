package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/peoplegraph/internal/app"
	"github.com/vanshika/peoplegraph/internal/config"
	"github.com/vanshika/peoplegraph/internal/logging"
	"github.com/vanshika/peoplegraph/internal/server"
	"github.com/vanshika/peoplegraph/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to assemble service", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	svc := application.Service
	if info, err := svc.Reload(ctx); err != nil {
		// The server still starts; /healthz reports degraded until a
		// refresh succeeds.
		logger.Error("initial snapshot load failed", "error", err)
	} else {
		logger.Info("serving snapshot",
			"dataset", info.Dataset,
			"source", info.Source,
			"nodes", info.Nodes,
			"edges", info.Edges,
		)
	}

	health := server.HealthChecks{
		server.SnapshotHealthService{Ready: svc.Ready},
		server.GraphHealthService{Client: application.Client},
	}
	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           health,
		API:              server.NewAPIHandlers(logger, svc, cfg.Recommend.QueryTimeout),
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: true,
		RateLimit:        cfg.HTTP.RateLimit,
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
	})

	tree := supervisor.NewTree(logger, supervisor.TreeConfig{ShutdownTimeout: cfg.HTTP.ShutdownTimeout})
	tree.AddAPIService(server.New(logger, cfg.HTTP, router))
	tree.AddDataService(supervisor.NewRefreshService(svc, cfg.Source.RefreshInterval, logger))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("supervisor stopped unexpectedly", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
