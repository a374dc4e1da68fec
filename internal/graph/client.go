package graph

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Client is the read-only view of a graph database used to load friendship
// snapshots. Writes never go through it; snapshots are replaced, not edited.
type Client interface {
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// ID returns the value stored under key as a node identifier. Integer and
// string properties are both accepted since user ids are often numeric.
func (r Record) ID(key string) (string, error) {
	switch v := r[key].(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case nil:
		return "", fmt.Errorf("%w: %q", ErrMissingField, key)
	default:
		return "", fmt.Errorf("%w: %q has type %T", ErrMissingField, key, v)
	}
}

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	FetchSize      int
}

var (
	// ErrMissingURI indicates the graph URI is not provided.
	ErrMissingURI = errors.New("graph URI is required")
	// ErrMissingField is returned when a record lacks a usable identifier.
	ErrMissingField = errors.New("record field missing or not an identifier")
)
