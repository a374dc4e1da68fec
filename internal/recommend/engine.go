package recommend

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Options tunes an Engine. Zero values select defaults.
type Options[N cmp.Ordered] struct {
	Workers           int
	ParallelThreshold int
	ExplanationCap    int
	// Compare orders identifiers for tie-breaks and shared neighbor lists.
	// Nil selects cmp.Compare.
	Compare func(a, b N) int
}

// Engine runs the recommendation pipeline: candidate selection, Adamic-Adar
// scoring, ranking and the explanation of the top result. It keeps no state
// between queries and is safe for concurrent use.
type Engine[N cmp.Ordered] struct {
	scorer         *Scorer[N]
	compare        func(a, b N) int
	explanationCap int
	logger         *slog.Logger
	tracer         trace.Tracer
}

func NewEngine[N cmp.Ordered](opts Options[N], logger *slog.Logger) *Engine[N] {
	if logger == nil {
		logger = slog.Default()
	}
	explanationCap := opts.ExplanationCap
	if explanationCap <= 0 {
		explanationCap = DefaultExplanationCap
	}
	compare := opts.Compare
	if compare == nil {
		compare = cmp.Compare[N]
	}
	return &Engine[N]{
		scorer:         NewScorer[N](opts.Workers, opts.ParallelThreshold),
		compare:        compare,
		explanationCap: explanationCap,
		logger:         logger.With("component", "recommend"),
		tracer:         otel.Tracer("peoplegraph/recommend"),
	}
}

// Recommend answers q against g. g must not change for the duration of the
// call; pass a single snapshot.
func (e *Engine[N]) Recommend(ctx context.Context, g GraphStore[N], q Query[N]) (Result[N], error) {
	ctx, span := e.tracer.Start(ctx, "recommend.Recommend", trace.WithAttributes(
		attribute.String("user", fmt.Sprint(q.User)),
		attribute.Int("k", q.K),
	))
	defer span.End()

	res, err := e.recommend(ctx, g, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result[N]{}, err
	}
	span.SetAttributes(
		attribute.Int("candidates_scored", res.Stats.CandidatesScored),
		attribute.Int("recommendations", len(res.Recommendations)),
	)
	return res, nil
}

func (e *Engine[N]) recommend(ctx context.Context, g GraphStore[N], q Query[N]) (Result[N], error) {
	if q.K < 1 {
		return Result[N]{}, fmt.Errorf("%w: k must be at least 1, got %d", ErrInvalidQuery, q.K)
	}
	if q.ExplanationCap < 0 {
		return Result[N]{}, fmt.Errorf("%w: explanation cap must not be negative, got %d", ErrInvalidQuery, q.ExplanationCap)
	}

	candidates, err := SelectCandidates(g, q.User)
	if err != nil {
		return Result[N]{}, err
	}

	friendCount := len(g.Neighbors(q.User))
	stats := Stats{
		FriendCount:      friendCount,
		CandidatePool:    max(len(g.Nodes())-friendCount-1, 0),
		CandidatesScored: len(candidates),
	}
	if len(candidates) == 0 {
		e.logger.DebugContext(ctx, "no candidates", "user", q.User, "friends", friendCount)
		return Result[N]{Recommendations: []Recommendation[N]{}, Stats: stats}, nil
	}

	pairs, err := e.scorer.Score(ctx, g, q.User, candidates)
	if err != nil {
		return Result[N]{}, fmt.Errorf("score candidates: %w", err)
	}

	recs := Rank(g, pairs, q.K, e.compare)
	explanation := Explain(g, q.User, recs[0].Candidate, e.capOrDefault(q.ExplanationCap), e.compare)

	e.logger.DebugContext(ctx, "recommendations computed",
		"user", q.User,
		"k", q.K,
		"candidates", len(candidates),
		"returned", len(recs),
	)
	return Result[N]{
		Recommendations: recs,
		Explanation:     &explanation,
		Stats:           stats,
	}, nil
}

// Explain returns the explanation subgraph for an arbitrary pair. Both nodes
// must exist in g and differ.
func (e *Engine[N]) Explain(ctx context.Context, g GraphStore[N], center, target N, limit int) (Explanation[N], error) {
	_, span := e.tracer.Start(ctx, "recommend.Explain")
	defer span.End()

	if limit < 0 {
		return Explanation[N]{}, fmt.Errorf("%w: explanation cap must not be negative, got %d", ErrInvalidQuery, limit)
	}
	if center == target {
		err := fmt.Errorf("%w: cannot explain %v against itself", ErrInvalidQuery, center)
		span.RecordError(err)
		return Explanation[N]{}, err
	}
	for _, n := range []N{center, target} {
		if !g.HasNode(n) {
			err := fmt.Errorf("%w: user %v not in graph", ErrInvalidQuery, n)
			span.RecordError(err)
			return Explanation[N]{}, err
		}
	}
	return Explain(g, center, target, e.capOrDefault(limit), e.compare), nil
}

func (e *Engine[N]) capOrDefault(limit int) int {
	if limit > 0 {
		return limit
	}
	return e.explanationCap
}
