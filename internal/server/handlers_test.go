package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/peoplegraph/internal/dataset"
	"github.com/vanshika/peoplegraph/internal/domain"
	"github.com/vanshika/peoplegraph/internal/graph"
	"github.com/vanshika/peoplegraph/internal/recommend"
	"github.com/vanshika/peoplegraph/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func triangleWithTail() domain.SocialGraph {
	return domain.SocialGraph{
		Name: "triangle",
		Users: []string{"Z"},
		Friendships: []domain.Friendship{
			{Source: "A", Target: "B"},
			{Source: "A", Target: "C"},
			{Source: "B", Target: "C"},
			{Source: "C", Target: "D"},
		},
	}
}

func newTestService(t *testing.T, load bool) *service.RecommendationService {
	t.Helper()
	store := graph.NewStore[string]()
	loader := service.NewLoader(dataset.NewStaticSource("static", triangleWithTail()), store, service.LoaderOptions{
		Timeout: time.Second,
	}, discardLogger())
	engine := recommend.NewEngine[string](recommend.Options[string]{Compare: graph.CompareIDs}, discardLogger())
	svc := service.NewRecommendationService(store, loader, engine, service.Options{
		Limits:    service.Limits{DefaultK: 5, MaxK: 10, ExplanationCap: 15, MaxExplanationCap: 100},
		CacheSize: 16,
		CacheTTL:  time.Minute,
	}, discardLogger())
	if load {
		_, err := svc.Reload(context.Background())
		require.NoError(t, err)
	}
	return svc
}

func newTestRouter(t *testing.T, api RecommendationAPI, health HealthService) http.Handler {
	t.Helper()
	return NewRouter(discardLogger(), RouterDependencies{
		Health:         health,
		API:            NewAPIHandlers(discardLogger(), api, time.Second),
		MetricsEnabled: true,
	})
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRecommendationsEndpoint(t *testing.T) {
	router := newTestRouter(t, newTestService(t, true), nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users/A/recommendations?k=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode[recommendationsResponse](t, rec)
	assert.Equal(t, "A", body.UserID)
	assert.Equal(t, 3, body.K)
	assert.Equal(t, "triangle", body.Dataset)
	assert.False(t, body.Cached)
	require.Len(t, body.Recommendations, 1)
	assert.Equal(t, recommendationDTO{Rank: 1, UserID: "D", Score: 0.91, MutualFriends: 1}, body.Recommendations[0])
	require.NotNil(t, body.Explanation)
	assert.Equal(t, []string{"C"}, body.Explanation.Shared)
	assert.Equal(t, []string{"A", "D", "C"}, body.Explanation.Nodes)
	assert.Equal(t, statsDTO{FriendCount: 2, CandidatePool: 2, CandidatesScored: 1}, body.Stats)

	again := decode[recommendationsResponse](t, doRequest(t, router, http.MethodGet, "/api/v1/users/A/recommendations?k=3"))
	assert.True(t, again.Cached)
	assert.Equal(t, body.Recommendations, again.Recommendations)
}

func TestRecommendationsIsolatedUserOmitsExplanation(t *testing.T) {
	router := newTestRouter(t, newTestService(t, true), nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users/Z/recommendations")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.JSONEq(t, `[]`, string(raw["recommendations"]))
	assert.NotContains(t, raw, "explanation")
}

func TestRecommendationsErrors(t *testing.T) {
	router := newTestRouter(t, newTestService(t, true), nil)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown user", "/api/v1/users/nobody/recommendations", http.StatusNotFound},
		{"non-numeric k", "/api/v1/users/A/recommendations?k=abc", http.StatusBadRequest},
		{"negative k", "/api/v1/users/A/recommendations?k=-1", http.StatusBadRequest},
		{"k above max", "/api/v1/users/A/recommendations?k=11", http.StatusBadRequest},
		{"cap above max", "/api/v1/users/A/recommendations?cap=101", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[map[string]string](t, rec)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestNoSnapshotIsUnavailable(t *testing.T) {
	svc := newTestService(t, false)
	router := newTestRouter(t, svc, SnapshotHealthService{Ready: svc.Ready})

	assert.Equal(t, http.StatusServiceUnavailable, doRequest(t, router, http.MethodGet, "/api/v1/users/A/recommendations").Code)
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(t, router, http.MethodGet, "/api/v1/graph").Code)

	health := doRequest(t, router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, health.Code)
	assert.Equal(t, "degraded", decode[map[string]string](t, health)["status"])
}

func TestExplainEndpoint(t *testing.T) {
	router := newTestRouter(t, newTestService(t, true), nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users/A/explain/B")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[explanationResponse](t, rec)
	assert.Equal(t, "A", body.Explanation.Center)
	assert.Equal(t, "B", body.Explanation.Target)
	assert.Equal(t, []string{"C"}, body.Explanation.Shared)
	assert.False(t, body.Explanation.Truncated)
	assert.ElementsMatch(t, []edgeDTO{
		{Source: "A", Target: "B"},
		{Source: "A", Target: "C"},
		{Source: "B", Target: "C"},
	}, body.Explanation.Edges)

	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodGet, "/api/v1/users/A/explain/nobody").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodGet, "/api/v1/users/A/explain/A").Code)
}

func TestUsersEndpointPaginates(t *testing.T) {
	router := newTestRouter(t, newTestService(t, true), nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users?page=2&pageSize=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[usersResponse](t, rec)
	assert.Equal(t, []userDTO{{ID: "C", Friends: 3}, {ID: "D", Friends: 1}}, body.Items)
	assert.Equal(t, paginationDTO{Page: 2, PageSize: 2, TotalItems: 5, TotalPages: 3}, body.Pagination)

	assert.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodGet, "/api/v1/users?pageSize=201").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/api/v1/users?pageSize=200").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodGet, "/api/v1/users?page=x").Code)

	far := doRequest(t, router, http.MethodGet, "/api/v1/users?page=184467440737095518&pageSize=50")
	require.Equal(t, http.StatusOK, far.Code, far.Body.String())
	farBody := decode[usersResponse](t, far)
	assert.Empty(t, farBody.Items)
	assert.Equal(t, 184467440737095518, farBody.Pagination.Page)
}

func TestGraphInfoAndReload(t *testing.T) {
	router := newTestRouter(t, newTestService(t, true), nil)

	info := decode[graphInfoDTO](t, doRequest(t, router, http.MethodGet, "/api/v1/graph"))
	assert.Equal(t, "triangle", info.Dataset)
	assert.Equal(t, "static", info.Source)
	assert.Equal(t, uint64(1), info.Version)
	assert.Equal(t, 5, info.Nodes)
	assert.Equal(t, 4, info.Edges)
	assert.NotEmpty(t, info.LoadedAt)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/graph/reload")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(2), decode[graphInfoDTO](t, rec).Version)

	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(t, router, http.MethodGet, "/api/v1/graph/reload").Code)
}

// failingAPI returns err from every call.
type failingAPI struct {
	err error
}

func (f failingAPI) Recommend(context.Context, service.RecommendParams) (service.Recommendations, error) {
	return service.Recommendations{}, f.err
}

func (f failingAPI) Explain(context.Context, string, string, int) (service.Explanation, error) {
	return service.Explanation{}, f.err
}

func (f failingAPI) ListUsers(context.Context, int, int) (service.UsersPage, error) {
	return service.UsersPage{}, f.err
}

func (f failingAPI) GraphInfo(context.Context) (domain.GraphInfo, error) {
	return domain.GraphInfo{}, f.err
}

func (f failingAPI) Reload(context.Context) (domain.GraphInfo, error) {
	return domain.GraphInfo{}, f.err
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"reload busy", service.ErrReloadInProgress, http.StatusConflict},
		{"invalid", recommend.ErrInvalidQuery, http.StatusBadRequest},
		{"not found", service.ErrUserNotFound, http.StatusNotFound},
		{"no snapshot", graph.ErrNoSnapshot, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, failingAPI{err: tt.err}, nil)
			assert.Equal(t, tt.status, doRequest(t, router, http.MethodGet, "/api/v1/users/A/recommendations").Code)
			assert.Equal(t, tt.status, doRequest(t, router, http.MethodPost, "/api/v1/graph/reload").Code)
		})
	}
}
