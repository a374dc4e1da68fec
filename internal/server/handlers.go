package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vanshika/peoplegraph/internal/domain"
	"github.com/vanshika/peoplegraph/internal/graph"
	"github.com/vanshika/peoplegraph/internal/recommend"
	"github.com/vanshika/peoplegraph/internal/service"
	"github.com/vanshika/peoplegraph/internal/validation"
)

// RecommendationAPI is the service surface the HTTP handlers depend on.
type RecommendationAPI interface {
	Recommend(ctx context.Context, params service.RecommendParams) (service.Recommendations, error)
	Explain(ctx context.Context, userID, targetID string, explanationCap int) (service.Explanation, error)
	ListUsers(ctx context.Context, page, pageSize int) (service.UsersPage, error)
	GraphInfo(ctx context.Context) (domain.GraphInfo, error)
	Reload(ctx context.Context) (domain.GraphInfo, error)
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger       *slog.Logger
	service      RecommendationAPI
	queryTimeout time.Duration
}

// NewAPIHandlers constructs an APIHandlers instance. A positive queryTimeout
// bounds every recommendation and explanation query.
func NewAPIHandlers(logger *slog.Logger, svc RecommendationAPI, queryTimeout time.Duration) *APIHandlers {
	return &APIHandlers{
		logger:       logger,
		service:      svc,
		queryTimeout: queryTimeout,
	}
}

type recommendationQuery struct {
	K              int `query:"k" validate:"min=0"`
	ExplanationCap int `query:"cap" validate:"min=0"`
}

type explainQuery struct {
	ExplanationCap int `query:"cap" validate:"min=0"`
}

type usersQuery struct {
	Page     int `query:"page" validate:"min=0"`
	PageSize int `query:"pageSize" validate:"min=0,max=200"`
}

func (h *APIHandlers) recommendations(w http.ResponseWriter, r *http.Request) {
	var q recommendationQuery
	if err := parseQuery(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	res, err := h.service.Recommend(ctx, service.RecommendParams{
		UserID:         chi.URLParam(r, "userID"),
		K:              q.K,
		ExplanationCap: q.ExplanationCap,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecommendationsResponse(res))
}

func (h *APIHandlers) explain(w http.ResponseWriter, r *http.Request) {
	var q explainQuery
	if err := parseQuery(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	exp, err := h.service.Explain(ctx, chi.URLParam(r, "userID"), chi.URLParam(r, "targetID"), q.ExplanationCap)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, explanationResponse{
		Dataset:     exp.Dataset,
		Version:     exp.Version,
		Explanation: toExplanationDTO(exp.Explanation),
	})
}

func (h *APIHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	var q usersQuery
	if err := parseQuery(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.ListUsers(r.Context(), q.Page, q.PageSize)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]userDTO, 0, len(page.Items))
	for _, u := range page.Items {
		items = append(items, userDTO{ID: u.ID, Friends: u.Friends})
	}
	respondJSON(w, http.StatusOK, usersResponse{
		Items: items,
		Pagination: paginationDTO{
			Page:       page.Pagination.Page,
			PageSize:   page.Pagination.PageSize,
			TotalItems: page.Pagination.TotalItems,
			TotalPages: page.Pagination.TotalPages,
		},
	})
}

func (h *APIHandlers) graphInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GraphInfo(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGraphInfoDTO(info))
}

func (h *APIHandlers) reloadGraph(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Reload(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGraphInfoDTO(info))
}

func (h *APIHandlers) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.queryTimeout)
}

func (h *APIHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, recommend.ErrInvalidQuery):
		status = http.StatusBadRequest
	case errors.Is(err, graph.ErrNoSnapshot):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, service.ErrReloadInProgress):
		status = http.StatusConflict
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"path", r.URL.Path,
			"status", status,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

// parseQuery fills the int fields of the struct dst points to from the query
// parameters named by their `query` tags, then validates it. Absent
// parameters leave their field at zero.
func parseQuery(r *http.Request, dst any) error {
	values := r.URL.Query()
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := range t.NumField() {
		name := t.Field(i).Tag.Get("query")
		raw := values.Get(name)
		if name == "" || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be an integer", name)
		}
		v.Field(i).SetInt(int64(n))
	}
	return validation.Struct(dst)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
