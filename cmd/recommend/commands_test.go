package main

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/peoplegraph/internal/config"
	"github.com/vanshika/peoplegraph/internal/dataset"
	"github.com/vanshika/peoplegraph/internal/domain"
)

func testConfig() (config.Config, error) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	return cfg, nil
}

func writeTriangle(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triangle.json")
	require.NoError(t, dataset.Write(path, domain.SocialGraph{
		Name:  "triangle",
		Users: []string{"Z"},
		Friendships: []domain.Friendship{
			{Source: "A", Target: "B"},
			{Source: "A", Target: "C"},
			{Source: "B", Target: "C"},
			{Source: "C", Target: "D"},
		},
	}))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(testConfig)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestUserTable(t *testing.T) {
	out, err := run(t, "user", "A", "--dataset", writeTriangle(t))
	require.NoError(t, err)

	assert.Contains(t, out, "User A in triangle: 2 friends, 2 candidates, 1 scored")
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "0.910")
	assert.Contains(t, out, "Why D: shared friends C")
}

func TestUserJSON(t *testing.T) {
	out, err := run(t, "user", "A", "--json", "--dataset", writeTriangle(t))
	require.NoError(t, err)

	var got resultOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []recommendationOutput{{Rank: 1, UserID: "D", Score: 0.91, MutualFriends: 1}}, got.Recommendations)
	require.NotNil(t, got.Explanation)
	assert.Equal(t, []string{"C"}, got.Explanation.Shared)
}

func TestUserIsolated(t *testing.T) {
	out, err := run(t, "user", "Z", "--dataset", writeTriangle(t))
	require.NoError(t, err)
	assert.Contains(t, out, "No recommendations.")
}

func TestUserUnknown(t *testing.T) {
	_, err := run(t, "user", "nobody", "--dataset", writeTriangle(t))
	assert.ErrorContains(t, err, "user not found")
}

func TestAllWritesJSONLines(t *testing.T) {
	out, err := run(t, "all", "--workers", "2")
	require.NoError(t, err)

	var lines int
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var got resultOutput
		require.NoError(t, json.Unmarshal(sc.Bytes(), &got))
		assert.Equal(t, dataset.KarateClubName, got.Dataset)
		lines++
	}
	assert.Equal(t, 34, lines)
}
