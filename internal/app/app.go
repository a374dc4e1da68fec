// Package app assembles the recommendation service from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vanshika/peoplegraph/internal/config"
	"github.com/vanshika/peoplegraph/internal/dataset"
	"github.com/vanshika/peoplegraph/internal/graph"
	"github.com/vanshika/peoplegraph/internal/recommend"
	"github.com/vanshika/peoplegraph/internal/repository"
	"github.com/vanshika/peoplegraph/internal/service"
)

// App holds the wired service and whatever must be closed with it.
type App struct {
	Service *service.RecommendationService
	// Client is nil unless the source is a graph database.
	Client graph.Client
	Source service.Source
}

// New builds the source, loader, engine and service described by cfg. It does
// not load a snapshot; call Service.Reload for that.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	src, client, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var fallback service.Source
	if cfg.Source.Fallback && cfg.Source.Kind != config.SourceKarate {
		fallback = dataset.NewStaticSource("karate", dataset.KarateClub())
	}

	store := graph.NewStore[string]()
	loader := service.NewLoader(src, store, service.LoaderOptions{
		Fallback: fallback,
		Timeout:  cfg.Source.LoadTimeout,
		Breaker: service.BreakerSettings{
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		},
		Compare: graph.CompareIDs,
	}, logger)

	engine := recommend.NewEngine[string](recommend.Options[string]{
		Workers:           cfg.Recommend.Workers,
		ParallelThreshold: cfg.Recommend.ParallelThreshold,
		ExplanationCap:    cfg.Recommend.ExplanationCap,
		Compare:           graph.CompareIDs,
	}, logger)

	svc := service.NewRecommendationService(store, loader, engine, service.Options{
		Limits: service.Limits{
			DefaultK:          cfg.Recommend.DefaultK,
			MaxK:              cfg.Recommend.MaxK,
			ExplanationCap:    cfg.Recommend.ExplanationCap,
			MaxExplanationCap: cfg.Recommend.MaxExplanationCap,
		},
		CacheSize: cfg.Recommend.CacheSize,
		CacheTTL:  cfg.Recommend.CacheTTL,
	}, logger)

	return &App{Service: svc, Client: client, Source: src}, nil
}

// Close releases the graph database driver, if any.
func (a *App) Close(ctx context.Context) error {
	if a.Client == nil {
		return nil
	}
	return a.Client.Close(ctx)
}

func buildSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (service.Source, graph.Client, error) {
	switch cfg.Source.Kind {
	case config.SourceFile:
		return dataset.NewFileSource(cfg.Source.Path), nil, nil
	case config.SourceKarate:
		return dataset.NewStaticSource("karate", dataset.KarateClub()), nil, nil
	case config.SourceNeo4j:
		client, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
			FetchSize:      cfg.Graph.FetchSize,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create graph client: %w", err)
		}
		logger.Info("graph client configured", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
		repo := repository.New(client, cfg.Source.Dataset).WithBatchSize(cfg.Graph.BatchSize)
		return repo, client, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
