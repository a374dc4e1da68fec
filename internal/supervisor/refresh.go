package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vanshika/peoplegraph/internal/domain"
	"github.com/vanshika/peoplegraph/internal/service"
)

// Reloader publishes a fresh snapshot.
type Reloader interface {
	Reload(ctx context.Context) (domain.GraphInfo, error)
}

// RefreshService reloads the friendship snapshot on a fixed interval.
type RefreshService struct {
	reloader Reloader
	interval time.Duration
	logger   *slog.Logger
}

func NewRefreshService(reloader Reloader, interval time.Duration, logger *slog.Logger) *RefreshService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshService{
		reloader: reloader,
		interval: interval,
		logger:   logger.With("service", "snapshot-refresh"),
	}
}

// Serve implements suture.Service. Failed reloads are logged and retried on
// the next tick; the current snapshot stays in place.
func (s *RefreshService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("snapshot refresh disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			info, err := s.reloader.Reload(ctx)
			switch {
			case errors.Is(err, service.ErrReloadInProgress):
				s.logger.Debug("skipping refresh, reload already running")
			case err != nil:
				s.logger.Warn("snapshot refresh failed", "error", err, "version", info.Version)
			default:
				s.logger.Info("snapshot refreshed",
					"dataset", info.Dataset,
					"version", info.Version,
					"nodes", info.Nodes,
					"edges", info.Edges,
				)
			}
		}
	}
}

func (s *RefreshService) String() string {
	return "snapshot-refresh"
}
