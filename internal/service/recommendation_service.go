package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/vanshika/peoplegraph/internal/dataset"
	"github.com/vanshika/peoplegraph/internal/domain"
	"github.com/vanshika/peoplegraph/internal/graph"
	"github.com/vanshika/peoplegraph/internal/metrics"
	"github.com/vanshika/peoplegraph/internal/recommend"
)

// Limits bounds request parameters and supplies their defaults.
type Limits struct {
	DefaultK          int
	MaxK              int
	ExplanationCap    int
	MaxExplanationCap int
}

// Options configures a RecommendationService.
type Options struct {
	Limits    Limits
	CacheSize int
	CacheTTL  time.Duration
}

type cacheKey struct {
	version uint64
	user    string
	k       int
	cap     int
}

// RecommendationService answers recommendation queries against the current
// graph snapshot.
type RecommendationService struct {
	store  *graph.Store[string]
	loader *Loader
	engine *recommend.Engine[string]
	limits Limits
	cache  *expirable.LRU[cacheKey, recommend.Result[string]]
	logger *slog.Logger
}

// NewRecommendationService wires the store, loader and engine together. A
// zero CacheSize disables result caching.
func NewRecommendationService(store *graph.Store[string], loader *Loader, engine *recommend.Engine[string], opts Options, logger *slog.Logger) *RecommendationService {
	if logger == nil {
		logger = slog.Default()
	}
	limits := opts.Limits
	if limits.DefaultK <= 0 {
		limits.DefaultK = 5
	}
	if limits.MaxK < limits.DefaultK {
		limits.MaxK = limits.DefaultK
	}
	if limits.ExplanationCap <= 0 {
		limits.ExplanationCap = recommend.DefaultExplanationCap
	}
	if limits.MaxExplanationCap < limits.ExplanationCap {
		limits.MaxExplanationCap = limits.ExplanationCap
	}

	svc := &RecommendationService{
		store:  store,
		loader: loader,
		engine: engine,
		limits: limits,
		logger: logger.With("component", "recommendation_service"),
	}
	if opts.CacheSize > 0 {
		svc.cache = expirable.NewLRU[cacheKey, recommend.Result[string]](opts.CacheSize, nil, opts.CacheTTL)
	}
	return svc
}

// Limits returns the effective request bounds.
func (s *RecommendationService) Limits() Limits {
	return s.limits
}

// Ready reports whether a snapshot is available.
func (s *RecommendationService) Ready() bool {
	return s.store.Ready()
}

// Recommend returns the top-k bundle for a user from a single snapshot.
func (s *RecommendationService) Recommend(ctx context.Context, params RecommendParams) (Recommendations, error) {
	userID := dataset.NormalizeID(params.UserID)
	if userID == "" {
		return Recommendations{}, fmt.Errorf("%w: user id is required", recommend.ErrInvalidQuery)
	}
	k, err := s.resolveK(params.K)
	if err != nil {
		return Recommendations{}, err
	}
	explanationCap, err := s.resolveCap(params.ExplanationCap)
	if err != nil {
		return Recommendations{}, err
	}

	snap, err := s.store.Current()
	if err != nil {
		return Recommendations{}, err
	}
	if !snap.Graph.HasNode(userID) {
		return Recommendations{}, fmt.Errorf("%w: %q", ErrUserNotFound, userID)
	}

	out := Recommendations{UserID: userID, K: k, Dataset: snap.Dataset, Version: snap.Version}
	key := cacheKey{version: snap.Version, user: userID, k: k, cap: explanationCap}
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			out.Result = res
			out.Cached = true
			return out, nil
		}
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	res, err := s.engine.Recommend(ctx, snap.Graph, recommend.Query[string]{
		User:           userID,
		K:              k,
		ExplanationCap: explanationCap,
	})
	if err != nil {
		metrics.RecommendationErrors.WithLabelValues(errorReason(err)).Inc()
		return Recommendations{}, err
	}
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	metrics.CandidatesScored.Observe(float64(res.Stats.CandidatesScored))

	if s.cache != nil {
		s.cache.Add(key, res)
	}
	out.Result = res
	return out, nil
}

// Explain returns the shared-neighbor subgraph for any two users.
func (s *RecommendationService) Explain(ctx context.Context, userID, targetID string, explanationCap int) (Explanation, error) {
	userID, targetID = dataset.NormalizeID(userID), dataset.NormalizeID(targetID)
	if userID == "" || targetID == "" {
		return Explanation{}, fmt.Errorf("%w: user and target ids are required", recommend.ErrInvalidQuery)
	}
	limit, err := s.resolveCap(explanationCap)
	if err != nil {
		return Explanation{}, err
	}

	snap, err := s.store.Current()
	if err != nil {
		return Explanation{}, err
	}
	for _, id := range []string{userID, targetID} {
		if !snap.Graph.HasNode(id) {
			return Explanation{}, fmt.Errorf("%w: %q", ErrUserNotFound, id)
		}
	}

	exp, err := s.engine.Explain(ctx, snap.Graph, userID, targetID, limit)
	if err != nil {
		return Explanation{}, err
	}
	return Explanation{Dataset: snap.Dataset, Version: snap.Version, Explanation: exp}, nil
}

// ListUsers pages through the users of the current snapshot in id order.
func (s *RecommendationService) ListUsers(_ context.Context, page, pageSize int) (UsersPage, error) {
	snap, err := s.store.Current()
	if err != nil {
		return UsersPage{}, err
	}
	page, pageSize = normalizePagination(page, pageSize)

	nodes := snap.Graph.Nodes()
	offset := len(nodes)
	// Checked before multiplying so huge page numbers cannot overflow.
	if page-1 <= len(nodes)/pageSize {
		offset = min((page-1)*pageSize, len(nodes))
	}
	end := min(offset+pageSize, len(nodes))

	items := make([]domain.UserSummary, 0, end-offset)
	for _, id := range nodes[offset:end] {
		items = append(items, domain.UserSummary{ID: id, Friends: snap.Graph.Degree(id)})
	}
	return UsersPage{
		Items:      items,
		Pagination: buildPaginationMeta(page, pageSize, int64(len(nodes))),
	}, nil
}

// GraphInfo describes the snapshot currently served.
func (s *RecommendationService) GraphInfo(_ context.Context) (domain.GraphInfo, error) {
	snap, err := s.store.Current()
	if err != nil {
		return domain.GraphInfo{}, err
	}
	return snapshotInfo(snap), nil
}

// Reload fetches a fresh snapshot and drops cached results.
func (s *RecommendationService) Reload(ctx context.Context) (domain.GraphInfo, error) {
	if s.loader == nil {
		return domain.GraphInfo{}, errors.New("no snapshot loader configured")
	}
	snap, err := s.loader.Load(ctx)
	if s.cache != nil && err == nil {
		s.cache.Purge()
	}
	if snap == nil {
		return domain.GraphInfo{}, err
	}
	return snapshotInfo(snap), err
}

func (s *RecommendationService) resolveK(k int) (int, error) {
	switch {
	case k == 0:
		return s.limits.DefaultK, nil
	case k < 1 || k > s.limits.MaxK:
		return 0, fmt.Errorf("%w: k must be between 1 and %d, got %d", recommend.ErrInvalidQuery, s.limits.MaxK, k)
	default:
		return k, nil
	}
}

func (s *RecommendationService) resolveCap(c int) (int, error) {
	switch {
	case c == 0:
		return s.limits.ExplanationCap, nil
	case c < 1 || c > s.limits.MaxExplanationCap:
		return 0, fmt.Errorf("%w: explanation cap must be between 1 and %d, got %d", recommend.ErrInvalidQuery, s.limits.MaxExplanationCap, c)
	default:
		return c, nil
	}
}

func snapshotInfo(snap *graph.Snapshot[string]) domain.GraphInfo {
	return domain.GraphInfo{
		Dataset:  snap.Dataset,
		Source:   snap.Source,
		Version:  snap.Version,
		Nodes:    snap.Graph.NodeCount(),
		Edges:    snap.Graph.EdgeCount(),
		LoadedAt: snap.LoadedAt,
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, recommend.ErrInvalidQuery):
		return "invalid_query"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

func normalizePagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

func buildPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
		if total > 0 && totalPages == 0 {
			totalPages = 1
		}
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
