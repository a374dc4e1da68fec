package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/vanshika/peoplegraph/internal/service"
)

type recommendationOutput struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"userId"`
	Score         float64 `json:"score"`
	MutualFriends int     `json:"mutualFriends"`
}

type explanationOutput struct {
	Target      string   `json:"target"`
	Shared      []string `json:"shared"`
	SharedTotal int      `json:"sharedTotal"`
	Edges       int      `json:"edges"`
}

type resultOutput struct {
	UserID           string                 `json:"userId"`
	Dataset          string                 `json:"dataset"`
	Recommendations  []recommendationOutput `json:"recommendations"`
	Explanation      *explanationOutput     `json:"explanation,omitempty"`
	FriendCount      int                    `json:"friendCount"`
	CandidatePool    int                    `json:"candidatePool"`
	CandidatesScored int                    `json:"candidatesScored"`
}

func toOutput(res service.Recommendations) resultOutput {
	out := resultOutput{
		UserID:           res.UserID,
		Dataset:          res.Dataset,
		Recommendations:  make([]recommendationOutput, 0, len(res.Recommendations)),
		FriendCount:      res.Stats.FriendCount,
		CandidatePool:    res.Stats.CandidatePool,
		CandidatesScored: res.Stats.CandidatesScored,
	}
	for _, r := range res.Recommendations {
		out.Recommendations = append(out.Recommendations, recommendationOutput{
			Rank:          r.Rank,
			UserID:        r.Candidate,
			Score:         r.DisplayScore(),
			MutualFriends: r.MutualFriends,
		})
	}
	if exp := res.Explanation; exp != nil {
		out.Explanation = &explanationOutput{
			Target:      exp.Target,
			Shared:      exp.Shared,
			SharedTotal: exp.SharedTotal,
			Edges:       len(exp.Edges),
		}
	}
	return out
}

func writeTable(w io.Writer, res service.Recommendations) error {
	fmt.Fprintf(w, "User %s in %s: %d friends, %d candidates, %d scored\n\n",
		res.UserID, res.Dataset, res.Stats.FriendCount, res.Stats.CandidatePool, res.Stats.CandidatesScored)

	if len(res.Recommendations) == 0 {
		_, err := fmt.Fprintln(w, "No recommendations.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tSCORE\tMUTUAL")
	for _, r := range res.Recommendations {
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%d\n", r.Rank, r.Candidate, r.DisplayScore(), r.MutualFriends)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if exp := res.Explanation; exp != nil {
		shared := strings.Join(exp.Shared, ", ")
		if exp.Truncated() {
			shared += fmt.Sprintf(" (+%d more)", exp.SharedTotal-len(exp.Shared))
		}
		_, err := fmt.Fprintf(w, "\nWhy %s: shared friends %s\n", exp.Target, shared)
		return err
	}
	return nil
}
