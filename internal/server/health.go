package server

import (
	"context"
	"errors"

	"github.com/vanshika/peoplegraph/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// GraphHealthService verifies graph database connectivity.
type GraphHealthService struct {
	Client graph.Client
}

// Probe implements the HealthService interface.
func (s GraphHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.VerifyConnectivity(ctx)
}

// SnapshotHealthService fails until a graph snapshot is being served.
type SnapshotHealthService struct {
	Ready func() bool
}

func (s SnapshotHealthService) Probe(context.Context) error {
	if s.Ready == nil || s.Ready() {
		return nil
	}
	return graph.ErrNoSnapshot
}

// HealthChecks runs every probe and joins their failures.
type HealthChecks []HealthService

func (hc HealthChecks) Probe(ctx context.Context) error {
	var errs []error
	for _, h := range hc {
		if err := h.Probe(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
