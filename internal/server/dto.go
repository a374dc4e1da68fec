package server

import (
	"github.com/vanshika/peoplegraph/internal/domain"
	"github.com/vanshika/peoplegraph/internal/recommend"
	"github.com/vanshika/peoplegraph/internal/service"
)

type recommendationDTO struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"userId"`
	Score         float64 `json:"score"`
	MutualFriends int     `json:"mutualFriends"`
}

type edgeDTO struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type explanationDTO struct {
	Center      string    `json:"center"`
	Target      string    `json:"target"`
	Shared      []string  `json:"shared"`
	SharedTotal int       `json:"sharedTotal"`
	Truncated   bool      `json:"truncated"`
	Nodes       []string  `json:"nodes"`
	Edges       []edgeDTO `json:"edges"`
}

type statsDTO struct {
	FriendCount      int `json:"friendCount"`
	CandidatePool    int `json:"candidatePool"`
	CandidatesScored int `json:"candidatesScored"`
}

type recommendationsResponse struct {
	UserID          string              `json:"userId"`
	K               int                 `json:"k"`
	Dataset         string              `json:"dataset"`
	Version         uint64              `json:"version"`
	Cached          bool                `json:"cached"`
	Recommendations []recommendationDTO `json:"recommendations"`
	Explanation     *explanationDTO     `json:"explanation,omitempty"`
	Stats           statsDTO            `json:"stats"`
}

type explanationResponse struct {
	Dataset     string         `json:"dataset"`
	Version     uint64         `json:"version"`
	Explanation explanationDTO `json:"explanation"`
}

type userDTO struct {
	ID      string `json:"id"`
	Friends int    `json:"friends"`
}

type paginationDTO struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

type usersResponse struct {
	Items      []userDTO     `json:"items"`
	Pagination paginationDTO `json:"pagination"`
}

type graphInfoDTO struct {
	Dataset  string `json:"dataset"`
	Source   string `json:"source"`
	Version  uint64 `json:"version"`
	Nodes    int    `json:"nodes"`
	Edges    int    `json:"edges"`
	LoadedAt string `json:"loadedAt,omitempty"`
}

func toRecommendationsResponse(res service.Recommendations) recommendationsResponse {
	recs := make([]recommendationDTO, 0, len(res.Recommendations))
	for _, rec := range res.Recommendations {
		recs = append(recs, recommendationDTO{
			Rank:          rec.Rank,
			UserID:        rec.Candidate,
			Score:         rec.DisplayScore(),
			MutualFriends: rec.MutualFriends,
		})
	}

	out := recommendationsResponse{
		UserID:          res.UserID,
		K:               res.K,
		Dataset:         res.Dataset,
		Version:         res.Version,
		Cached:          res.Cached,
		Recommendations: recs,
		Stats: statsDTO{
			FriendCount:      res.Stats.FriendCount,
			CandidatePool:    res.Stats.CandidatePool,
			CandidatesScored: res.Stats.CandidatesScored,
		},
	}
	if res.Explanation != nil {
		exp := toExplanationDTO(*res.Explanation)
		out.Explanation = &exp
	}
	return out
}

func toExplanationDTO(exp recommend.Explanation[string]) explanationDTO {
	edges := make([]edgeDTO, 0, len(exp.Edges))
	for _, e := range exp.Edges {
		edges = append(edges, edgeDTO{Source: e.Source, Target: e.Target})
	}
	shared := exp.Shared
	if shared == nil {
		shared = []string{}
	}
	return explanationDTO{
		Center:      exp.Center,
		Target:      exp.Target,
		Shared:      shared,
		SharedTotal: exp.SharedTotal,
		Truncated:   exp.Truncated(),
		Nodes:       exp.Nodes,
		Edges:       edges,
	}
}

func toGraphInfoDTO(info domain.GraphInfo) graphInfoDTO {
	return graphInfoDTO{
		Dataset:  info.Dataset,
		Source:   info.Source,
		Version:  info.Version,
		Nodes:    info.Nodes,
		Edges:    info.Edges,
		LoadedAt: formatTime(info.LoadedAt),
	}
}
