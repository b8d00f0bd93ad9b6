package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/worksgraph/internal/domain"
	"github.com/yungbote/worksgraph/internal/observability"
	"github.com/yungbote/worksgraph/internal/platform/neo4jdb"
	"github.com/yungbote/worksgraph/internal/platform/redisbus"
	"github.com/yungbote/worksgraph/internal/platform/sqldb"
)

const (
	BackendNeo4j = "neo4j"
	BackendSQL   = "sql"

	envConfigPath     = "WORKSGRAPH_CONFIG"
	defaultConfigPath = "config/worksgraph.yaml"
)

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowOrigins    []string      `yaml:"allow_origins"`
}

type Config struct {
	LogMode      string                   `yaml:"log_mode"`
	LogLevel     string                   `yaml:"log_level"`
	GraphBackend string                   `yaml:"graph_backend"`
	HTTP         HTTPConfig               `yaml:"http"`
	Neo4j        neo4jdb.Config           `yaml:"neo4j"`
	SQL          sqldb.Config             `yaml:"sql"`
	Redis        redisbus.Config          `yaml:"redis"`
	Otel         observability.OtelConfig `yaml:"otel"`
}

func DefaultConfig() Config {
	return Config{
		LogMode:      "development",
		GraphBackend: BackendNeo4j,
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
		},
		Neo4j: neo4jdb.Config{
			User:        "neo4j",
			TimeoutSec:  10,
			MaxPoolSize: 50,
		},
		SQL: sqldb.Config{
			Driver: sqldb.DriverPostgres,
		},
		Redis: redisbus.Config{
			Channel: redisbus.DefaultChannel,
		},
		Otel: observability.OtelConfig{
			ServiceName: "worksgraph",
			SampleRatio: 0.1,
		},
	}
}

// LoadConfig layers defaults, the optional YAML file and environment
// overrides, in that order. path wins over WORKSGRAPH_CONFIG when non-empty.
// A missing default file is not an error; a missing explicit file is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := strings.TrimSpace(path)
	if explicit == "" {
		explicit = strings.TrimSpace(os.Getenv(envConfigPath))
	}
	file := explicit
	if file == "" {
		file = defaultConfigPath
	}
	raw, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, &domain.ConfigurationError{Key: file, Reason: fmt.Sprintf("invalid yaml: %v", err)}
		}
	case errors.Is(err, fs.ErrNotExist) && explicit == "":
	default:
		return Config{}, &domain.ConfigurationError{Key: file, Reason: err.Error()}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &domain.ConfigurationError{Key: key, Reason: "must be an integer"}
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = parseBool(v)
		}
	}

	str("LOG_MODE", &cfg.LogMode)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("HTTP_ADDR", &cfg.HTTP.Addr)
	str("GRAPH_BACKEND", &cfg.GraphBackend)

	str("NEO4J_URI", &cfg.Neo4j.URI)
	str("NEO4J_USER", &cfg.Neo4j.User)
	str("NEO4J_PASSWORD", &cfg.Neo4j.Password)
	str("NEO4J_DATABASE", &cfg.Neo4j.Database)
	if err := num("NEO4J_TIMEOUT_SECONDS", &cfg.Neo4j.TimeoutSec); err != nil {
		return err
	}
	if err := num("NEO4J_MAX_POOL_SIZE", &cfg.Neo4j.MaxPoolSize); err != nil {
		return err
	}

	str("SQL_DRIVER", &cfg.SQL.Driver)
	str("SQL_DSN", &cfg.SQL.DSN)

	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("REDIS_CHANNEL", &cfg.Redis.Channel)
	if err := num("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	flag("OTEL_ENABLED", &cfg.Otel.Enabled)
	flag("OTEL_EXPORTER_OTLP_INSECURE", &cfg.Otel.Insecure)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Otel.Endpoint)
	str("OTEL_ENVIRONMENT", &cfg.Otel.Environment)
	if v, ok := lookup("OTEL_SAMPLER_RATIO"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return &domain.ConfigurationError{Key: "OTEL_SAMPLER_RATIO", Reason: "must be a number"}
		}
		cfg.Otel.SampleRatio = f
	}
	if v, ok := lookup("OTEL_EXPORTER_OTLP_HEADERS"); ok {
		if h := parseHeaders(v); h != nil {
			cfg.Otel.Headers = h
		}
	}
	return nil
}

// Validate checks that the selected graph backend has its connection
// parameters and that the HTTP timeouts are usable. Failures are fatal at
// startup.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.GraphBackend)) {
	case BackendNeo4j:
		if strings.TrimSpace(c.Neo4j.URI) == "" {
			return &domain.ConfigurationError{Key: "NEO4J_URI", Reason: "required for the neo4j backend"}
		}
	case BackendSQL:
		if strings.TrimSpace(c.SQL.DSN) == "" {
			return &domain.ConfigurationError{Key: "SQL_DSN", Reason: "required for the sql backend"}
		}
		switch strings.ToLower(strings.TrimSpace(c.SQL.Driver)) {
		case "", sqldb.DriverPostgres, sqldb.DriverSQLite:
		default:
			return &domain.ConfigurationError{Key: "SQL_DRIVER", Reason: fmt.Sprintf("unsupported driver %q", c.SQL.Driver)}
		}
	default:
		return &domain.ConfigurationError{Key: "GRAPH_BACKEND", Reason: fmt.Sprintf("unknown backend %q", c.GraphBackend)}
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return &domain.ConfigurationError{Key: "HTTP_ADDR", Reason: "required"}
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return &domain.ConfigurationError{Key: "http.shutdown_timeout", Reason: "must be positive"}
	}
	if c.HTTP.ReadTimeout < 0 || c.HTTP.WriteTimeout < 0 {
		return &domain.ConfigurationError{Key: "http.read_timeout/write_timeout", Reason: "must not be negative"}
	}
	return nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// parseHeaders reads "k1=v1,k2=v2"; malformed pairs are skipped.
func parseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		key, val := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}
