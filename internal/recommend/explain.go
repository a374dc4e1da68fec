package recommend

import (
	"cmp"
	"slices"
)

// DefaultExplanationCap bounds the shared neighbors shown in an explanation.
const DefaultExplanationCap = 15

// Explain builds the subgraph induced by center, target and up to limit of
// their shared neighbors, taken in compare order. A non-positive limit
// selects DefaultExplanationCap. Only edges present in g are reported, each
// once, following the order of Nodes.
func Explain[N cmp.Ordered](g GraphStore[N], center, target N, limit int, compare func(a, b N) int) Explanation[N] {
	if compare == nil {
		compare = cmp.Compare[N]
	}
	if limit <= 0 {
		limit = DefaultExplanationCap
	}

	shared := MutualFriends(g, center, target)
	slices.SortFunc(shared, compare)
	total := len(shared)
	if len(shared) > limit {
		shared = shared[:limit]
	}

	nodes := make([]N, 0, len(shared)+2)
	nodes = append(nodes, center)
	if target != center {
		nodes = append(nodes, target)
	}
	nodes = append(nodes, shared...)

	adjacency := make([]map[N]struct{}, len(nodes))
	for i, n := range nodes {
		adjacency[i] = neighborSet(g, n)
	}
	var edges []Edge[N]
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if _, ok := adjacency[i][nodes[j]]; ok {
				edges = append(edges, Edge[N]{Source: nodes[i], Target: nodes[j]})
			}
		}
	}

	return Explanation[N]{
		Center:      center,
		Target:      target,
		Shared:      shared,
		SharedTotal: total,
		Nodes:       nodes,
		Edges:       edges,
	}
}
