package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, SourceKarate, cfg.Source.Kind)
	assert.True(t, cfg.Source.Fallback)
	assert.Equal(t, 5, cfg.Recommend.DefaultK)
	assert.Equal(t, 10, cfg.Recommend.MaxK)
	assert.Equal(t, 15, cfg.Recommend.ExplanationCap)
	assert.Equal(t, 5*time.Second, cfg.Recommend.QueryTimeout)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RECOMMEND_QUERY_TIMEOUT", "750ms")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SOURCE_KIND", "neo4j")
	t.Setenv("GRAPH_URI", "bolt://localhost:7687")

	cfg, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 750*time.Millisecond, cfg.Recommend.QueryTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins())
	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  kind: file
  path: /data/friends.csv
  refresh_interval: 1m
recommend:
  default_k: 3
  max_k: 20
http:
  port: 7000
`), 0o600))
	t.Setenv("SERVER_PORT", "7100")

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceFile, cfg.Source.Kind)
	assert.Equal(t, "/data/friends.csv", cfg.Source.Path)
	assert.Equal(t, time.Minute, cfg.Source.RefreshInterval)
	assert.Equal(t, 3, cfg.Recommend.DefaultK)
	assert.Equal(t, 20, cfg.Recommend.MaxK)
	assert.Equal(t, 7100, cfg.HTTP.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port out of range":      {"SERVER_PORT": "70000"},
		"default above max":      {"RECOMMEND_DEFAULT_K": "11"},
		"unknown source":         {"SOURCE_KIND": "pickle"},
		"file without path":      {"SOURCE_KIND": "file"},
		"neo4j without uri":      {"SOURCE_KIND": "neo4j"},
		"unknown log level":      {"LOG_LEVEL": "loud"},
		"cap above maximum":      {"RECOMMEND_EXPLANATION_CAP": "500"},
		"non numeric port value": {"SERVER_PORT": "http"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := load("")
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
