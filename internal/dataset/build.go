package dataset

import (
	"errors"
	"regexp"
	"strings"

	"github.com/vanshika/peoplegraph/internal/domain"
	"github.com/vanshika/peoplegraph/internal/graph"
)

// ErrEmptyDataset is returned when a dataset has no users at all.
var ErrEmptyDataset = errors.New("dataset: no users")

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeID collapses inner whitespace and trims a user id.
func NormalizeID(id string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(id, " "))
}

// BuildReport counts what Build dropped while converting a dataset.
type BuildReport struct {
	Nodes      int
	Edges      int
	SelfLoops  int
	Duplicates int
	BlankIDs   int
}

// Build converts sg into an immutable graph ordered by compare. Self-loops,
// repeated friendships and blank ids are skipped and counted.
func Build(sg domain.SocialGraph, compare func(a, b string) int) (*graph.Graph[string], BuildReport, error) {
	b := graph.NewBuilder[string]().WithCompare(compare)
	var report BuildReport

	for _, u := range sg.Users {
		id := NormalizeID(u)
		if id == "" {
			report.BlankIDs++
			continue
		}
		b.AddNode(id)
	}
	for _, f := range sg.Friendships {
		source, target := NormalizeID(f.Source), NormalizeID(f.Target)
		if source == "" || target == "" {
			report.BlankIDs++
			continue
		}
		added, err := b.AddEdge(source, target)
		switch {
		case errors.Is(err, graph.ErrSelfLoop):
			report.SelfLoops++
		case err != nil:
			return nil, report, err
		case !added:
			report.Duplicates++
		}
	}

	g := b.Freeze()
	report.Nodes = g.NodeCount()
	report.Edges = g.EdgeCount()
	if report.Nodes == 0 {
		return nil, report, ErrEmptyDataset
	}
	return g, report, nil
}
