package recommend

import (
	"cmp"
	"slices"
)

// Rank orders pairs by descending score, breaking ties by ascending candidate
// under compare, keeps the first k and numbers them from 1. Mutual friend
// counts are read back from g rather than from the scoring pass. pairs is
// not modified.
func Rank[N cmp.Ordered](g GraphStore[N], pairs []ScoredPair[N], k int, compare func(a, b N) int) []Recommendation[N] {
	if compare == nil {
		compare = cmp.Compare[N]
	}
	sorted := slices.Clone(pairs)
	slices.SortFunc(sorted, func(a, b ScoredPair[N]) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return compare(a.Candidate, b.Candidate)
	})
	if k < len(sorted) {
		sorted = sorted[:max(k, 0)]
	}

	recs := make([]Recommendation[N], len(sorted))
	for i, p := range sorted {
		recs[i] = Recommendation[N]{
			Rank:          i + 1,
			Candidate:     p.Candidate,
			Score:         p.Score,
			MutualFriends: len(MutualFriends(g, p.Query, p.Candidate)),
		}
	}
	return recs
}
