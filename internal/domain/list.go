package domain

import "time"

// UserSummary represents lightweight user information for list endpoints.
type UserSummary struct {
	ID      string
	Friends int
}

// UserListResult captures paginated user list results.
type UserListResult struct {
	Items []UserSummary
	Total int64
}

// GraphInfo describes the snapshot currently served.
type GraphInfo struct {
	Dataset  string
	Source   string
	Version  uint64
	Nodes    int
	Edges    int
	LoadedAt time.Time
}
