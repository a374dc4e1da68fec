package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/vanshika/peoplegraph/internal/dataset"
	"github.com/vanshika/peoplegraph/internal/domain"
	"github.com/vanshika/peoplegraph/internal/graph"
	"github.com/vanshika/peoplegraph/internal/metrics"
)

// BreakerSettings tunes the circuit breaker around the primary source.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Fallback is used when the primary source fails and nothing is served yet.
	Fallback Source
	Timeout  time.Duration
	Breaker  BreakerSettings
	Compare  func(a, b string) int
}

// Loader reads datasets from a primary source, builds immutable graphs and
// publishes them to the store. Once a snapshot is being served a failed load
// keeps it in place; the fallback only covers a cold start.
type Loader struct {
	primary  Source
	fallback Source
	store    *graph.Store[string]
	breaker  *gobreaker.CircuitBreaker[domain.SocialGraph]
	timeout  time.Duration
	compare  func(a, b string) int
	logger   *slog.Logger
	nowFn    func() time.Time
	mu       sync.Mutex
}

func NewLoader(primary Source, store *graph.Store[string], opts LoaderOptions, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "loader")
	if opts.Compare == nil {
		opts.Compare = graph.CompareIDs
	}
	threshold := opts.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}

	name := "source:" + primary.Name()
	metrics.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	breaker := gobreaker.NewCircuitBreaker[domain.SocialGraph](gobreaker.Settings{
		Name:        name,
		MaxRequests: opts.Breaker.MaxRequests,
		Interval:    opts.Breaker.Interval,
		Timeout:     opts.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("source circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Loader{
		primary:  primary,
		fallback: opts.Fallback,
		store:    store,
		breaker:  breaker,
		timeout:  opts.Timeout,
		compare:  opts.Compare,
		logger:   logger,
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (l *Loader) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		l.nowFn = nowFn
	}
}

// Load refreshes the served snapshot. It returns the snapshot now being
// served, which is the previous one when the primary source failed after a
// successful start.
func (l *Loader) Load(ctx context.Context) (*graph.Snapshot[string], error) {
	if !l.mu.TryLock() {
		return nil, ErrReloadInProgress
	}
	defer l.mu.Unlock()

	g, sg, err := l.loadPrimary(ctx)
	if err == nil {
		return l.publish(g, sg, l.primary.Name()), nil
	}
	metrics.SnapshotReloads.WithLabelValues(l.primary.Name(), "failure").Inc()

	if current, curErr := l.store.Current(); curErr == nil {
		l.logger.ErrorContext(ctx, "snapshot reload failed; keeping current snapshot",
			"source", l.primary.Name(),
			"version", current.Version,
			"error", err,
		)
		return current, fmt.Errorf("reload from %s: %w", l.primary.Name(), err)
	}
	if l.fallback == nil {
		return nil, fmt.Errorf("load from %s: %w", l.primary.Name(), err)
	}

	l.logger.WarnContext(ctx, "primary source unavailable; serving fallback dataset",
		"source", l.primary.Name(),
		"fallback", l.fallback.Name(),
		"error", err,
	)
	sg, err = l.fallback.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fallback %s: %w", l.fallback.Name(), err)
	}
	g, report, err := dataset.Build(sg, l.compare)
	if err != nil {
		return nil, fmt.Errorf("build fallback %s: %w", l.fallback.Name(), err)
	}
	l.logReport(ctx, l.fallback.Name(), report)
	return l.publish(g, sg, l.fallback.Name()), nil
}

func (l *Loader) loadPrimary(ctx context.Context) (*graph.Graph[string], domain.SocialGraph, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var report dataset.BuildReport
	var g *graph.Graph[string]
	sg, err := l.breaker.Execute(func() (domain.SocialGraph, error) {
		sg, err := l.primary.Load(ctx)
		if err != nil {
			return sg, err
		}
		// An unusable dataset counts against the breaker like a failed read.
		g, report, err = dataset.Build(sg, l.compare)
		return sg, err
	})
	if err != nil {
		return nil, domain.SocialGraph{}, err
	}
	l.logReport(ctx, l.primary.Name(), report)
	return g, sg, nil
}

func (l *Loader) publish(g *graph.Graph[string], sg domain.SocialGraph, source string) *graph.Snapshot[string] {
	snap := l.store.Swap(g, sg.Name, source, l.nowFn().UTC())
	metrics.SnapshotReloads.WithLabelValues(source, "success").Inc()
	metrics.SnapshotNodes.Set(float64(g.NodeCount()))
	metrics.SnapshotEdges.Set(float64(g.EdgeCount()))
	metrics.SnapshotVersion.Set(float64(snap.Version))
	l.logger.Info("graph snapshot published",
		"dataset", snap.Dataset,
		"source", source,
		"version", snap.Version,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
	)
	return snap
}

func (l *Loader) logReport(ctx context.Context, source string, report dataset.BuildReport) {
	if report.SelfLoops == 0 && report.Duplicates == 0 && report.BlankIDs == 0 {
		return
	}
	l.logger.WarnContext(ctx, "dataset entries skipped",
		"source", source,
		"self_loops", report.SelfLoops,
		"duplicates", report.Duplicates,
		"blank_ids", report.BlankIDs,
	)
}
