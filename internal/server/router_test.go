package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/peoplegraph/internal/graph"
)

type probeFunc func(ctx context.Context) error

func (f probeFunc) Probe(ctx context.Context) error { return f(ctx) }

func TestHealthz(t *testing.T) {
	router := NewRouter(discardLogger(), RouterDependencies{})

	rec := doRequest(t, router, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestHealthChecksJoinFailures(t *testing.T) {
	client := graph.NewMemoryClient().WithConnectivityError(errors.New("bolt down"))
	checks := HealthChecks{
		GraphHealthService{Client: client},
		SnapshotHealthService{Ready: func() bool { return false }},
		probeFunc(func(context.Context) error { return nil }),
	}

	err := checks.Probe(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrNoSnapshot)
	assert.Contains(t, err.Error(), "bolt down")

	assert.NoError(t, HealthChecks{GraphHealthService{}, SnapshotHealthService{}}.Probe(context.Background()))
}

func TestRequestIDHeader(t *testing.T) {
	router := NewRouter(discardLogger(), RouterDependencies{})

	rec := doRequest(t, router, http.MethodGet, "/healthz")
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	router := NewRouter(discardLogger(), RouterDependencies{})

	rec := doRequest(t, router, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route not found", decode[map[string]string](t, rec)["error"])
}

func TestMetricsEndpointToggle(t *testing.T) {
	on := NewRouter(discardLogger(), RouterDependencies{MetricsEnabled: true})
	doRequest(t, on, http.MethodGet, "/healthz")

	rec := doRequest(t, on, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "peoplegraph_http_requests_total")

	off := NewRouter(discardLogger(), RouterDependencies{})
	assert.Equal(t, http.StatusNotFound, doRequest(t, off, http.MethodGet, "/metrics").Code)
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(discardLogger(), RouterDependencies{AllowedOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	router := NewRouter(discardLogger(), RouterDependencies{RateLimit: 2})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/healthz").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, router, http.MethodGet, "/healthz").Code)
}
