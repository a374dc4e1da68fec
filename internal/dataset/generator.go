package dataset

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/vanshika/peoplegraph/internal/domain"
)

// Generator produces synthetic friendship graphs with community structure.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.Communities <= 0 {
		cfg.Communities = def.Communities
	}
	if cfg.Communities > cfg.NumUsers {
		cfg.Communities = cfg.NumUsers
	}
	if cfg.IntraChance <= 0 {
		cfg.IntraChance = def.IntraChance
	}
	if cfg.CrossLinksPerUser < 0 {
		cfg.CrossLinksPerUser = 0
	}
	if cfg.IsolatedChance < 0 {
		cfg.IsolatedChance = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate synthesises users and friendships. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (domain.SocialGraph, error) {
	users := make([]string, g.cfg.NumUsers)
	isolated := make([]bool, g.cfg.NumUsers)
	for i := range users {
		users[i] = fmt.Sprintf("%s%d", g.cfg.IDPrefix, i+1)
		isolated[i] = g.rand.Float64() < g.cfg.IsolatedChance
	}

	// Round-robin membership keeps community sizes within one of each other.
	members := make([][]int, g.cfg.Communities)
	for i := range users {
		c := i % g.cfg.Communities
		members[c] = append(members[c], i)
	}

	seen := make(map[[2]int]struct{})
	var friendships []domain.Friendship
	link := func(a, b int) {
		if a == b || isolated[a] || isolated[b] {
			return
		}
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		friendships = append(friendships, domain.Friendship{Source: users[a], Target: users[b]})
	}

	for _, group := range members {
		if err := ctx.Err(); err != nil {
			return domain.SocialGraph{}, err
		}
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if g.rand.Float64() < g.cfg.IntraChance {
					link(group[i], group[j])
				}
			}
		}
	}

	crossLinks := int(float64(g.cfg.NumUsers) * g.cfg.CrossLinksPerUser)
	for i := 0; i < crossLinks; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return domain.SocialGraph{}, err
			}
		}
		link(g.rand.Intn(len(users)), g.rand.Intn(len(users)))
	}

	return domain.SocialGraph{
		Name:        g.cfg.Name,
		Users:       users,
		Friendships: friendships,
	}, nil
}
