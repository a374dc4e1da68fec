package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/peoplegraph/internal/domain"
	"github.com/vanshika/peoplegraph/internal/recommend"
)

// ErrUserNotFound marks queries for a user absent from the snapshot. It is
// also an invalid query, so errors.Is matches recommend.ErrInvalidQuery.
var ErrUserNotFound = fmt.Errorf("user not found: %w", recommend.ErrInvalidQuery)

// ErrReloadInProgress is returned when a reload is requested while another runs.
var ErrReloadInProgress = errors.New("snapshot reload already in progress")

// Source produces a full friendship dataset on demand.
type Source interface {
	Name() string
	Load(ctx context.Context) (domain.SocialGraph, error)
}

// RecommendParams is a recommendation request. Zero K and ExplanationCap
// select the configured defaults.
type RecommendParams struct {
	UserID         string
	K              int
	ExplanationCap int
}

// Recommendations is an engine result tagged with the snapshot it came from.
type Recommendations struct {
	UserID  string
	K       int
	Dataset string
	Version uint64
	Cached  bool
	recommend.Result[string]
}

// Explanation is an explanation subgraph tagged with its snapshot.
type Explanation struct {
	Dataset string
	Version uint64
	recommend.Explanation[string]
}

// PaginationMeta captures pagination metadata returned to API clients.
type PaginationMeta struct {
	Page       int
	PageSize   int
	TotalItems int64
	TotalPages int
}

// UsersPage represents paginated users with metadata.
type UsersPage struct {
	Items      []domain.UserSummary
	Pagination PaginationMeta
}
