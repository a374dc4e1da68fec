package graph

import (
	"cmp"
	"errors"
	"sync/atomic"
	"time"
)

// ErrNoSnapshot is returned when a query arrives before any graph was loaded.
var ErrNoSnapshot = errors.New("graph: no snapshot loaded")

// Snapshot is one immutable generation of the served graph.
type Snapshot[N cmp.Ordered] struct {
	Graph    *Graph[N]
	Dataset  string
	Source   string
	Version  uint64
	LoadedAt time.Time
}

// Store publishes snapshots to concurrent readers. Readers hold on to the
// snapshot they fetched for the whole request, so a concurrent Swap never
// tears a query in half.
type Store[N cmp.Ordered] struct {
	current atomic.Pointer[Snapshot[N]]
	version atomic.Uint64
}

func NewStore[N cmp.Ordered]() *Store[N] {
	return &Store[N]{}
}

// Current returns the latest snapshot or ErrNoSnapshot.
func (s *Store[N]) Current() (*Snapshot[N], error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Swap publishes g as the next snapshot and returns it.
func (s *Store[N]) Swap(g *Graph[N], dataset, source string, loadedAt time.Time) *Snapshot[N] {
	snap := &Snapshot[N]{
		Graph:    g,
		Dataset:  dataset,
		Source:   source,
		Version:  s.version.Add(1),
		LoadedAt: loadedAt,
	}
	s.current.Store(snap)
	return snap
}

// Ready reports whether a snapshot has been published.
func (s *Store[N]) Ready() bool {
	return s.current.Load() != nil
}
