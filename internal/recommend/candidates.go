package recommend

import (
	"cmp"
	"fmt"
)

// SelectCandidates returns the nodes two hops from user: not user, not a
// neighbor of user, and sharing at least one neighbor with user. Order is
// discovery order over the adjacency lists, so it is stable for a given graph.
func SelectCandidates[N cmp.Ordered](g GraphStore[N], user N) ([]N, error) {
	if !g.HasNode(user) {
		return nil, fmt.Errorf("%w: user %v not in graph", ErrInvalidQuery, user)
	}

	friends := neighborSet(g, user)
	seen := make(map[N]struct{})
	var candidates []N
	for _, friend := range g.Neighbors(user) {
		for _, c := range g.Neighbors(friend) {
			if c == user {
				continue
			}
			if _, ok := friends[c]; ok {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

// MutualFriends returns the neighbors a and b have in common, in b's
// adjacency order.
func MutualFriends[N cmp.Ordered](g GraphStore[N], a, b N) []N {
	return intersect(neighborSet(g, a), g.Neighbors(b))
}

func neighborSet[N cmp.Ordered](g GraphStore[N], n N) map[N]struct{} {
	nbrs := g.Neighbors(n)
	set := make(map[N]struct{}, len(nbrs))
	for _, m := range nbrs {
		set[m] = struct{}{}
	}
	return set
}

func intersect[N cmp.Ordered](set map[N]struct{}, list []N) []N {
	var out []N
	for _, n := range list {
		if _, ok := set[n]; ok {
			out = append(out, n)
		}
	}
	return out
}
