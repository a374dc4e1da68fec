package recommend

import (
	"cmp"
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	defaultParallelThreshold = 512
	cancelCheckInterval      = 256
)

// Scorer computes Adamic-Adar scores. Candidate lists at or above the
// parallel threshold are split across a bounded set of goroutines.
type Scorer[N cmp.Ordered] struct {
	workers   int
	threshold int
}

// NewScorer returns a scorer. Non-positive workers uses GOMAXPROCS and a
// non-positive threshold uses the package default.
func NewScorer[N cmp.Ordered](workers, threshold int) *Scorer[N] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &Scorer[N]{workers: workers, threshold: threshold}
}

// Score returns one ScoredPair per candidate, in input order. It only fails
// when ctx is done.
func (s *Scorer[N]) Score(ctx context.Context, g GraphStore[N], user N, candidates []N) ([]ScoredPair[N], error) {
	out := make([]ScoredPair[N], len(candidates))
	if len(candidates) == 0 {
		return out, nil
	}
	friends := neighborSet(g, user)

	if len(candidates) < s.threshold || s.workers == 1 {
		if err := scoreRange(ctx, g, user, friends, candidates, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	chunk := (len(candidates) + s.workers - 1) / s.workers
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)
	for start := 0; start < len(candidates); start += chunk {
		end := min(start+chunk, len(candidates))
		eg.Go(func() error {
			return scoreRange(egCtx, g, user, friends, candidates[start:end], out[start:end])
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func scoreRange[N cmp.Ordered](ctx context.Context, g GraphStore[N], user N, friends map[N]struct{}, candidates []N, out []ScoredPair[N]) error {
	for i, c := range candidates {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		out[i] = ScoredPair[N]{Query: user, Candidate: c, Score: adamicAdar(g, friends, c)}
	}
	return nil
}

// AdamicAdar returns the Adamic-Adar index of u and v: the sum of
// 1/ln(degree(z)) over their common neighbors z. Common neighbors of degree
// below 2 contribute nothing.
func AdamicAdar[N cmp.Ordered](g GraphStore[N], u, v N) float64 {
	return adamicAdar(g, neighborSet(g, u), v)
}

func adamicAdar[N cmp.Ordered](g GraphStore[N], friends map[N]struct{}, v N) float64 {
	var score float64
	for _, z := range g.Neighbors(v) {
		if _, shared := friends[z]; !shared {
			continue
		}
		degree := len(g.Neighbors(z))
		if degree < 2 {
			continue
		}
		score += 1 / math.Log(float64(degree))
	}
	return score
}
