package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/peoplegraph/internal/domain"
	"github.com/vanshika/peoplegraph/internal/graph"
)

const defaultBatchSize = 5000

const listUsersCypher = `
MATCH (u:User)
WHERE u.userId IS NOT NULL
RETURN u.userId AS userId
ORDER BY userId
SKIP $offset
LIMIT $limit`

// Each friendship is returned once; elementId ordering picks the direction.
const listFriendshipsCypher = `
MATCH (a:User)-[:FRIENDS_WITH]-(b:User)
WHERE elementId(a) < elementId(b) AND a.userId IS NOT NULL AND b.userId IS NOT NULL
RETURN a.userId AS source, b.userId AS target
ORDER BY source, target
SKIP $offset
LIMIT $limit`

// Repository reads friendship snapshots from a graph database.
type Repository struct {
	client    graph.Client
	dataset   string
	batchSize int
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client, dataset string) *Repository {
	if dataset == "" {
		dataset = "neo4j"
	}
	return &Repository{client: client, dataset: dataset, batchSize: defaultBatchSize}
}

// WithBatchSize overrides how many rows are fetched per page.
func (r *Repository) WithBatchSize(n int) *Repository {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

// Name identifies the repository as a snapshot source.
func (r *Repository) Name() string {
	return "neo4j"
}

// Load reads every user and FRIENDS_WITH relationship page by page.
func (r *Repository) Load(ctx context.Context) (domain.SocialGraph, error) {
	if r.client == nil {
		return domain.SocialGraph{}, errors.New("graph client is not configured")
	}

	users, err := r.pages(ctx, listUsersCypher, func(rec graph.Record) (string, error) {
		return rec.ID("userId")
	})
	if err != nil {
		return domain.SocialGraph{}, fmt.Errorf("list users: %w", err)
	}

	var friendships []domain.Friendship
	err = r.each(ctx, listFriendshipsCypher, func(rec graph.Record) error {
		source, err := rec.ID("source")
		if err != nil {
			return err
		}
		target, err := rec.ID("target")
		if err != nil {
			return err
		}
		friendships = append(friendships, domain.Friendship{Source: source, Target: target})
		return nil
	})
	if err != nil {
		return domain.SocialGraph{}, fmt.Errorf("list friendships: %w", err)
	}

	return domain.SocialGraph{Name: r.dataset, Users: users, Friendships: friendships}, nil
}

func (r *Repository) pages(ctx context.Context, cypher string, decode func(graph.Record) (string, error)) ([]string, error) {
	var out []string
	err := r.each(ctx, cypher, func(rec graph.Record) error {
		v, err := decode(rec)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func (r *Repository) each(ctx context.Context, cypher string, fn func(graph.Record) error) error {
	for offset := 0; ; offset += r.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.client.ExecuteRead(ctx, cypher, map[string]any{
			"offset": offset,
			"limit":  r.batchSize,
		})
		if err != nil {
			return err
		}
		for _, rec := range res.Records {
			if err := fn(rec); err != nil {
				return err
			}
		}
		if len(res.Records) < r.batchSize {
			return nil
		}
	}
}

// Ping checks that the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}
