package recommend

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/peoplegraph/internal/graph"
)

func edgesGraph[N int | string](t *testing.T, edges [][2]N, isolated ...N) *graph.Graph[N] {
	t.Helper()
	b := graph.NewBuilder[N]()
	for _, e := range edges {
		_, err := b.AddEdge(e[0], e[1])
		require.NoError(t, err)
	}
	for _, n := range isolated {
		b.AddNode(n)
	}
	return b.Freeze()
}

func randomGraph(t *testing.T, seed uint64, nodes int, p float64) *graph.Graph[int] {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	b := graph.NewBuilder[int]()
	for i := 0; i < nodes; i++ {
		b.AddNode(i)
		for j := 0; j < i; j++ {
			if rng.Float64() < p {
				_, err := b.AddEdge(i, j)
				require.NoError(t, err)
			}
		}
	}
	return b.Freeze()
}

// stubStore serves adjacency verbatim, including asymmetric lists a real
// graph would never produce.
type stubStore map[string][]string

func (s stubStore) Neighbors(n string) []string { return s[n] }

func (s stubStore) Nodes() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	return out
}

func (s stubStore) HasNode(n string) bool {
	_, ok := s[n]
	return ok
}

func TestRecommendTriangleWithTail(t *testing.T) {
	g := edgesGraph(t, [][2]string{{"A", "B"}, {"A", "C"}, {"B", "C"}, {"C", "D"}})
	engine := NewEngine[string](Options[string]{}, nil)

	res, err := engine.Recommend(context.Background(), g, Query[string]{User: "A", K: 5})
	require.NoError(t, err)

	require.Len(t, res.Recommendations, 1)
	rec := res.Recommendations[0]
	assert.Equal(t, 1, rec.Rank)
	assert.Equal(t, "D", rec.Candidate)
	assert.InDelta(t, 1/math.Log(3), rec.Score, 1e-12)
	assert.Equal(t, 0.910, rec.DisplayScore())
	assert.Equal(t, 1, rec.MutualFriends)

	assert.Equal(t, Stats{FriendCount: 2, CandidatePool: 1, CandidatesScored: 1}, res.Stats)

	require.NotNil(t, res.Explanation)
	assert.Equal(t, "A", res.Explanation.Center)
	assert.Equal(t, "D", res.Explanation.Target)
	assert.Equal(t, []string{"C"}, res.Explanation.Shared)
	assert.Equal(t, []string{"A", "D", "C"}, res.Explanation.Nodes)
	assert.Equal(t, []Edge[string]{{Source: "A", Target: "C"}, {Source: "D", Target: "C"}}, res.Explanation.Edges)
}

func TestRecommendIsolatedUser(t *testing.T) {
	g := edgesGraph(t, [][2]string{{"A", "B"}}, "Z")
	engine := NewEngine[string](Options[string]{}, nil)

	res, err := engine.Recommend(context.Background(), g, Query[string]{User: "Z", K: 5})
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
	assert.NotNil(t, res.Recommendations)
	assert.Nil(t, res.Explanation)
	assert.Equal(t, 0, res.Stats.FriendCount)
	assert.Equal(t, 2, res.Stats.CandidatePool)
}

func TestRecommendFullyConnectedUser(t *testing.T) {
	g := edgesGraph(t, [][2]int{{1, 2}, {1, 3}, {2, 3}})
	res, err := NewEngine[int](Options[int]{}, nil).Recommend(context.Background(), g, Query[int]{User: 1, K: 3})
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
	assert.Nil(t, res.Explanation)
	assert.Equal(t, 0, res.Stats.CandidatePool)
}

func TestRankTieBreaksByAscendingID(t *testing.T) {
	g := edgesGraph(t, [][2]int{{1, 2}, {2, 7}, {2, 3}})
	res, err := NewEngine[int](Options[int]{}, nil).Recommend(context.Background(), g, Query[int]{User: 1, K: 5})
	require.NoError(t, err)

	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, 3, res.Recommendations[0].Candidate)
	assert.Equal(t, 7, res.Recommendations[1].Candidate)
	assert.Equal(t, res.Recommendations[0].Score, res.Recommendations[1].Score)
	assert.Equal(t, []int{1, 2}, []int{res.Recommendations[0].Rank, res.Recommendations[1].Rank})
}

func TestRankUsesCustomCompare(t *testing.T) {
	g := edgesGraph(t, [][2]string{{"u", "hub"}, {"hub", "10"}, {"hub", "9"}})
	engine := NewEngine[string](Options[string]{Compare: graph.CompareIDs}, nil)

	res, err := engine.Recommend(context.Background(), g, Query[string]{User: "u", K: 2})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "9", res.Recommendations[0].Candidate)
	assert.Equal(t, "10", res.Recommendations[1].Candidate)
}

func TestDegreeOneSharedNeighborContributesNothing(t *testing.T) {
	store := stubStore{
		"u": {"z", "w"},
		"v": {"z", "w"},
		"z": {"u"},
		"w": {"u", "v", "x"},
		"x": {"w"},
	}
	scorer := NewScorer[string](1, 0)

	pairs, err := scorer.Score(context.Background(), store, "u", []string{"v"})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.InDelta(t, 1/math.Log(3), pairs[0].Score, 1e-12)

	lonely := stubStore{"u": {"z"}, "v": {"z"}, "z": {"u"}}
	assert.Zero(t, AdamicAdar[string](lonely, "u", "v"))
	assert.False(t, math.IsNaN(AdamicAdar[string](lonely, "u", "v")))
}

func TestRecommendKLargerThanCandidates(t *testing.T) {
	g := edgesGraph(t, [][2]int{{1, 2}, {2, 3}, {2, 4}, {2, 5}})
	res, err := NewEngine[int](Options[int]{}, nil).Recommend(context.Background(), g, Query[int]{User: 1, K: 50})
	require.NoError(t, err)
	assert.Len(t, res.Recommendations, 3)
	assert.Equal(t, 3, res.Stats.CandidatesScored)
}

func TestRecommendTruncatesToK(t *testing.T) {
	g := edgesGraph(t, [][2]int{{1, 2}, {2, 3}, {2, 4}, {2, 5}})
	res, err := NewEngine[int](Options[int]{}, nil).Recommend(context.Background(), g, Query[int]{User: 1, K: 2})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, []int{3, 4}, []int{res.Recommendations[0].Candidate, res.Recommendations[1].Candidate})
}

func TestRecommendInvalidQuery(t *testing.T) {
	g := edgesGraph(t, [][2]string{{"A", "B"}})
	engine := NewEngine[string](Options[string]{}, nil)

	cases := map[string]Query[string]{
		"unknown user": {User: "nobody", K: 1},
		"zero k":       {User: "A", K: 0},
		"negative k":   {User: "A", K: -3},
		"negative cap": {User: "A", K: 1, ExplanationCap: -1},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Recommend(context.Background(), g, q)
			require.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestRecommendHonoursCancellation(t *testing.T) {
	g := edgesGraph(t, [][2]int{{1, 2}, {2, 3}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine[int](Options[int]{}, nil).Recommend(ctx, g, Query[int]{User: 1, K: 1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSelectCandidatesExcludesSelfAndFriends(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		g := randomGraph(t, seed, 40, 0.12)
		for _, u := range g.Nodes() {
			candidates, err := SelectCandidates[int](g, u)
			require.NoError(t, err)

			seen := map[int]bool{}
			for _, c := range candidates {
				require.NotEqual(t, u, c)
				require.False(t, g.HasEdge(u, c), "candidate %d is a friend of %d", c, u)
				require.NotEmpty(t, MutualFriends[int](g, u, c))
				require.False(t, seen[c], "duplicate candidate %d", c)
				seen[c] = true
			}
		}
	}
}

func TestScoresNonNegativeAndZeroOnlyWithoutSharedHubs(t *testing.T) {
	g := randomGraph(t, 7, 50, 0.1)
	scorer := NewScorer[int](1, 0)
	for _, u := range g.Nodes() {
		others := make([]int, 0, g.NodeCount())
		for _, v := range g.Nodes() {
			if v != u {
				others = append(others, v)
			}
		}
		pairs, err := scorer.Score(context.Background(), g, u, others)
		require.NoError(t, err)
		for i, p := range pairs {
			require.Equal(t, others[i], p.Candidate)
			require.GreaterOrEqual(t, p.Score, 0.0)
			if p.Score == 0 {
				for _, z := range MutualFriends[int](g, u, p.Candidate) {
					require.Less(t, g.Degree(z), 2)
				}
			}
		}
	}
}

func TestParallelScoringMatchesSequential(t *testing.T) {
	g := randomGraph(t, 11, 120, 0.08)
	user := 0
	candidates, err := SelectCandidates[int](g, user)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	seq, err := NewScorer[int](1, 0).Score(context.Background(), g, user, candidates)
	require.NoError(t, err)
	par, err := NewScorer[int](4, 1).Score(context.Background(), g, user, candidates)
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestParallelScoringCancelled(t *testing.T) {
	g := randomGraph(t, 3, 80, 0.1)
	candidates := g.Nodes()[1:]

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScorer[int](4, 1).Score(ctx, g, 0, candidates)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRankOrderingProperties(t *testing.T) {
	g := randomGraph(t, 5, 60, 0.1)
	engine := NewEngine[int](Options[int]{}, nil)
	for _, u := range g.Nodes() {
		for _, k := range []int{1, 3, 10} {
			res, err := engine.Recommend(context.Background(), g, Query[int]{User: u, K: k})
			require.NoError(t, err)

			recs := res.Recommendations
			require.Equal(t, min(k, res.Stats.CandidatesScored), len(recs))
			for i, r := range recs {
				require.Equal(t, i+1, r.Rank)
				require.Equal(t, len(MutualFriends[int](g, u, r.Candidate)), r.MutualFriends)
				if i == 0 {
					continue
				}
				prev := recs[i-1]
				require.GreaterOrEqual(t, prev.Score, r.Score)
				if prev.Score == r.Score {
					require.Less(t, prev.Candidate, r.Candidate)
				}
			}
		}
	}
}

func TestRecommendIsIdempotent(t *testing.T) {
	g := randomGraph(t, 9, 70, 0.09)
	engine := NewEngine[int](Options[int]{Workers: 4, ParallelThreshold: 1}, nil)
	for _, u := range g.Nodes() {
		first, err := engine.Recommend(context.Background(), g, Query[int]{User: u, K: 5})
		require.NoError(t, err)
		second, err := engine.Recommend(context.Background(), g, Query[int]{User: u, K: 5})
		require.NoError(t, err)
		require.Equal(t, first, second)
	}
}
