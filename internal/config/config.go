package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/vanshika/peoplegraph/internal/validation"
)

// ConfigPathEnvVar names an optional YAML file layered between defaults and
// the environment.
const ConfigPathEnvVar = "CONFIG_PATH"

// Source kinds.
const (
	SourceFile   = "file"
	SourceNeo4j  = "neo4j"
	SourceKarate = "karate"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	Graph     GraphConfig     `koanf:"graph"`
	Source    SourceConfig    `koanf:"source"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout       time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	MetricsEnabled    bool          `koanf:"metrics_enabled"`
	AllowedOriginsCSV string        `koanf:"allowed_origins"`
	// RateLimit is requests per minute per client IP; zero disables it.
	RateLimit int `koanf:"rate_limit" validate:"min=0"`
}

// AllowedOrigins splits AllowedOriginsCSV.
func (c HTTPConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOriginsCSV, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr is the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GraphConfig describes connectivity to a Bolt graph database.
type GraphConfig struct {
	URI            string `koanf:"uri"`
	Database       string `koanf:"database"`
	Username       string `koanf:"username"`
	Password       string `koanf:"password"`
	MaxConnections int    `koanf:"max_connections" validate:"min=1"`
	FetchSize      int    `koanf:"fetch_size" validate:"min=0"`
	BatchSize      int    `koanf:"batch_size" validate:"min=1"`
}

// SourceConfig selects where friendship snapshots come from.
type SourceConfig struct {
	Kind            string        `koanf:"kind" validate:"oneof=file neo4j karate"`
	Path            string        `koanf:"path"`
	Dataset         string        `koanf:"dataset"`
	Fallback        bool          `koanf:"fallback"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"min=0"`
	LoadTimeout     time.Duration `koanf:"load_timeout" validate:"gt=0"`
}

// BreakerConfig tunes the circuit breaker guarding the primary source.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests" validate:"min=1"`
	Interval         time.Duration `koanf:"interval" validate:"min=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`
}

// RecommendConfig holds the engine knobs and query bounds.
type RecommendConfig struct {
	DefaultK          int           `koanf:"default_k" validate:"min=1,ltefield=MaxK"`
	MaxK              int           `koanf:"max_k" validate:"min=1"`
	ExplanationCap    int           `koanf:"explanation_cap" validate:"min=1"`
	MaxExplanationCap int           `koanf:"max_explanation_cap" validate:"min=1"`
	Workers           int           `koanf:"workers" validate:"min=0"`
	ParallelThreshold int           `koanf:"parallel_threshold" validate:"min=0"`
	QueryTimeout      time.Duration `koanf:"query_timeout" validate:"gt=0"`
	CacheSize         int           `koanf:"cache_size" validate:"min=0"`
	CacheTTL          time.Duration `koanf:"cache_ttl" validate:"min=0"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format        string `koanf:"format" validate:"oneof=json console text"`
	Colored       bool   `koanf:"colored"`
	IncludeCaller bool   `koanf:"include_caller"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Graph: GraphConfig{
			MaxConnections: 10,
			BatchSize:      5000,
		},
		Source: SourceConfig{
			Kind:        SourceKarate,
			Fallback:    true,
			LoadTimeout: 30 * time.Second,
		},
		Breaker: BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 3,
		},
		Recommend: RecommendConfig{
			DefaultK:          5,
			MaxK:              10,
			ExplanationCap:    15,
			MaxExplanationCap: 100,
			ParallelThreshold: 512,
			QueryTimeout:      5 * time.Second,
			CacheSize:         1024,
			CacheTTL:          5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load layers defaults, the optional CONFIG_PATH YAML file and environment
// variables, in that order, then validates the result.
func Load() (Config, error) {
	return load(os.Getenv(ConfigPathEnvVar))
}

func load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field rules and cross-field requirements.
func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	switch c.Source.Kind {
	case SourceFile:
		if c.Source.Path == "" {
			return errors.New("source.path is required when source.kind is file")
		}
	case SourceNeo4j:
		if c.Graph.URI == "" {
			return errors.New("graph.uri is required when source.kind is neo4j")
		}
	}
	if c.Recommend.ExplanationCap > c.Recommend.MaxExplanationCap {
		return errors.New("recommend.explanation_cap must not exceed recommend.max_explanation_cap")
	}
	return nil
}

var envKeys = map[string]string{
	"SERVER_HOST":             "http.host",
	"SERVER_PORT":             "http.port",
	"SERVER_READ_TIMEOUT":     "http.read_timeout",
	"SERVER_WRITE_TIMEOUT":    "http.write_timeout",
	"SERVER_IDLE_TIMEOUT":     "http.idle_timeout",
	"SERVER_SHUTDOWN_TIMEOUT": "http.shutdown_timeout",
	"SERVER_METRICS_ENABLED":  "http.metrics_enabled",
	"SERVER_ALLOWED_ORIGINS":  "http.allowed_origins",
	"SERVER_RATE_LIMIT":       "http.rate_limit",

	"GRAPH_URI":             "graph.uri",
	"GRAPH_DATABASE":        "graph.database",
	"GRAPH_USERNAME":        "graph.username",
	"GRAPH_PASSWORD":        "graph.password",
	"GRAPH_MAX_CONNECTIONS": "graph.max_connections",
	"GRAPH_FETCH_SIZE":      "graph.fetch_size",
	"GRAPH_BATCH_SIZE":      "graph.batch_size",

	"SOURCE_KIND":             "source.kind",
	"SOURCE_PATH":             "source.path",
	"SOURCE_DATASET":          "source.dataset",
	"SOURCE_FALLBACK":         "source.fallback",
	"SOURCE_REFRESH_INTERVAL": "source.refresh_interval",
	"SOURCE_LOAD_TIMEOUT":     "source.load_timeout",

	"BREAKER_MAX_REQUESTS":      "breaker.max_requests",
	"BREAKER_INTERVAL":          "breaker.interval",
	"BREAKER_TIMEOUT":           "breaker.timeout",
	"BREAKER_FAILURE_THRESHOLD": "breaker.failure_threshold",

	"RECOMMEND_DEFAULT_K":           "recommend.default_k",
	"RECOMMEND_MAX_K":               "recommend.max_k",
	"RECOMMEND_EXPLANATION_CAP":     "recommend.explanation_cap",
	"RECOMMEND_MAX_EXPLANATION_CAP": "recommend.max_explanation_cap",
	"RECOMMEND_WORKERS":             "recommend.workers",
	"RECOMMEND_PARALLEL_THRESHOLD":  "recommend.parallel_threshold",
	"RECOMMEND_QUERY_TIMEOUT":       "recommend.query_timeout",
	"RECOMMEND_CACHE_SIZE":          "recommend.cache_size",
	"RECOMMEND_CACHE_TTL":           "recommend.cache_ttl",

	"LOG_LEVEL":          "logging.level",
	"LOG_FORMAT":         "logging.format",
	"LOG_COLOR":          "logging.colored",
	"LOG_INCLUDE_CALLER": "logging.include_caller",
}

// envKey maps a known environment variable to its config path. Unknown
// variables map to "" and are ignored by the provider.
func envKey(name string) string {
	return envKeys[name]
}
