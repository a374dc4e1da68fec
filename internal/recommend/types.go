package recommend

import (
	"cmp"
	"math"
)

// GraphStore is the read-only capability the engine needs from a graph.
// Neighbors must not contain duplicates and must return nil or an empty slice
// for unknown nodes. Implementations must be safe for concurrent reads.
type GraphStore[N cmp.Ordered] interface {
	Neighbors(n N) []N
	Nodes() []N
	HasNode(n N) bool
}

// Query asks for the top K recommendations of User. ExplanationCap bounds the
// shared neighbors listed in the explanation; zero selects the engine default.
type Query[N cmp.Ordered] struct {
	User           N
	K              int
	ExplanationCap int
}

// ScoredPair is the Adamic-Adar score of Candidate from Query's perspective.
type ScoredPair[N cmp.Ordered] struct {
	Query     N
	Candidate N
	Score     float64
}

// Recommendation is a ranked candidate.
type Recommendation[N cmp.Ordered] struct {
	Rank          int
	Candidate     N
	Score         float64
	MutualFriends int
}

// DisplayScore is Score rounded to three decimals.
func (r Recommendation[N]) DisplayScore() float64 {
	return RoundScore(r.Score)
}

// Edge is an undirected edge reported in an explanation.
type Edge[N cmp.Ordered] struct {
	Source N
	Target N
}

// Explanation is the induced subgraph over center, target and their shared
// neighbors. Shared is ordered and capped; SharedTotal is the uncapped count.
type Explanation[N cmp.Ordered] struct {
	Center      N
	Target      N
	Shared      []N
	SharedTotal int
	Nodes       []N
	Edges       []Edge[N]
}

// Truncated reports whether the cap hid some shared neighbors.
func (e Explanation[N]) Truncated() bool {
	return len(e.Shared) < e.SharedTotal
}

// Stats summarises the work done for a query.
type Stats struct {
	// FriendCount is the degree of the query user.
	FriendCount int
	// CandidatePool counts every node that is neither the user nor a friend.
	CandidatePool int
	// CandidatesScored counts candidates sharing at least one neighbor.
	CandidatesScored int
}

// Result is the output bundle of one query. Explanation is nil when there are
// no recommendations.
type Result[N cmp.Ordered] struct {
	Recommendations []Recommendation[N]
	Explanation     *Explanation[N]
	Stats           Stats
}

// RoundScore rounds s to three decimal places.
func RoundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}
