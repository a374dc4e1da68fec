package graph

import (
	"cmp"
	"errors"
	"slices"
)

// ErrSelfLoop is returned by Builder.AddEdge when both endpoints are the same node.
var ErrSelfLoop = errors.New("graph: self-loop not allowed")

// Builder accumulates nodes and undirected edges before freezing them into an
// immutable Graph. A Builder is not safe for concurrent use.
type Builder[N cmp.Ordered] struct {
	adj     map[N]map[N]struct{}
	edges   int
	compare func(a, b N) int
}

// NewBuilder returns an empty builder ordering nodes with cmp.Compare.
func NewBuilder[N cmp.Ordered]() *Builder[N] {
	return &Builder[N]{
		adj:     make(map[N]map[N]struct{}),
		compare: cmp.Compare[N],
	}
}

// WithCompare sets the order used for Nodes and adjacency lists.
func (b *Builder[N]) WithCompare(fn func(a, b N) int) *Builder[N] {
	if fn != nil {
		b.compare = fn
	}
	return b
}

// AddNode registers n. Adding an existing node is a no-op.
func (b *Builder[N]) AddNode(n N) {
	if _, ok := b.adj[n]; !ok {
		b.adj[n] = make(map[N]struct{})
	}
}

// AddEdge registers the undirected edge {x, y}, adding missing endpoints.
// It reports whether the edge was new.
func (b *Builder[N]) AddEdge(x, y N) (bool, error) {
	if x == y {
		return false, ErrSelfLoop
	}
	b.AddNode(x)
	b.AddNode(y)
	if _, dup := b.adj[x][y]; dup {
		return false, nil
	}
	b.adj[x][y] = struct{}{}
	b.adj[y][x] = struct{}{}
	b.edges++
	return true, nil
}

// Freeze produces the immutable graph. The builder may keep being used; later
// additions do not affect graphs already frozen.
func (b *Builder[N]) Freeze() *Graph[N] {
	g := &Graph[N]{
		adj:     make(map[N][]N, len(b.adj)),
		nodes:   make([]N, 0, len(b.adj)),
		edges:   b.edges,
		compare: b.compare,
	}
	for n, set := range b.adj {
		nbrs := make([]N, 0, len(set))
		for m := range set {
			nbrs = append(nbrs, m)
		}
		slices.SortFunc(nbrs, b.compare)
		g.adj[n] = nbrs
		g.nodes = append(g.nodes, n)
	}
	slices.SortFunc(g.nodes, b.compare)
	return g
}

// Graph is a simple undirected graph: no self-loops, no parallel edges and
// symmetric adjacency. It is immutable and safe for concurrent reads.
type Graph[N cmp.Ordered] struct {
	adj     map[N][]N
	nodes   []N
	edges   int
	compare func(a, b N) int
}

// Neighbors returns the adjacency list of n in node order. The slice is
// shared with the graph and must not be modified. Unknown nodes yield nil.
func (g *Graph[N]) Neighbors(n N) []N {
	return g.adj[n]
}

// Nodes returns every node in node order. The slice must not be modified.
func (g *Graph[N]) Nodes() []N {
	return g.nodes
}

func (g *Graph[N]) HasNode(n N) bool {
	_, ok := g.adj[n]
	return ok
}

func (g *Graph[N]) Degree(n N) int {
	return len(g.adj[n])
}

// HasEdge reports whether {x, y} is an edge.
func (g *Graph[N]) HasEdge(x, y N) bool {
	nx, ny := g.adj[x], g.adj[y]
	if len(ny) < len(nx) {
		nx, y = ny, x
	}
	_, found := slices.BinarySearchFunc(nx, y, g.compare)
	return found
}

func (g *Graph[N]) NodeCount() int { return len(g.nodes) }

func (g *Graph[N]) EdgeCount() int { return g.edges }

// Edges lists every edge once as {lower, higher} in node order.
func (g *Graph[N]) Edges() [][2]N {
	out := make([][2]N, 0, g.edges)
	for _, n := range g.nodes {
		for _, m := range g.adj[n] {
			if g.compare(n, m) < 0 {
				out = append(out, [2]N{n, m})
			}
		}
	}
	return out
}

// Compare exposes the node order the graph was frozen with.
func (g *Graph[N]) Compare(a, b N) int {
	return g.compare(a, b)
}
