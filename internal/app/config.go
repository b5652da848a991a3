package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-recommender/internal/platform/envutil"
	"github.com/yungbote/neurobridge-recommender/internal/platform/neo4jdb"
	"github.com/yungbote/neurobridge-recommender/internal/platform/qdrant"
	"github.com/yungbote/neurobridge-recommender/internal/realtime/bus"
)

type VectorProvider string

const (
	VectorProviderPgvector VectorProvider = "pgvector"
	VectorProviderQdrant   VectorProvider = "qdrant"
)

type GraphProvider string

const (
	GraphProviderPostgres GraphProvider = "postgres"
	GraphProviderNeo4j    GraphProvider = "neo4j"
)

type ConfigErrorCode string

const (
	ConfigErrorReadFile              ConfigErrorCode = "read_config_file"
	ConfigErrorParseFile             ConfigErrorCode = "parse_config_file"
	ConfigErrorInvalidVectorProvider ConfigErrorCode = "invalid_vector_provider"
	ConfigErrorInvalidGraphProvider  ConfigErrorCode = "invalid_graph_provider"
	ConfigErrorQdrant                ConfigErrorCode = "qdrant_config_error"
	ConfigErrorMissingNeo4jURI       ConfigErrorCode = "missing_neo4j_uri"
	ConfigErrorMissingJWTSecret      ConfigErrorCode = "missing_jwt_secret"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid config"
	}
	if e.Cause != nil {
		return fmt.Sprintf("invalid config (code=%s value=%q): %v", e.Code, e.Value, e.Cause)
	}
	return fmt.Sprintf("invalid config (code=%s value=%q)", e.Code, e.Value)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

type BreakerConfig struct {
	Failures int           `yaml:"failures"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Config struct {
	LogMode        string        `yaml:"log_mode"`
	Environment    string        `yaml:"environment"`
	Version        string        `yaml:"version"`
	HTTPAddr       string        `yaml:"http_addr"`
	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	CORSOrigins    []string      `yaml:"cors_allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	VectorProvider VectorProvider `yaml:"vector_provider"`
	GraphProvider  GraphProvider  `yaml:"graph_provider"`

	Qdrant  qdrant.Config  `yaml:"qdrant"`
	Neo4j   neo4jdb.Config `yaml:"neo4j"`
	Redis   bus.Config     `yaml:"redis"`
	Breaker BreakerConfig  `yaml:"breaker"`
}

func defaultConfig() Config {
	return Config{
		LogMode:        "development",
		Environment:    "development",
		HTTPAddr:       ":8080",
		RequestTimeout: 15 * time.Second,
		VectorProvider: VectorProviderPgvector,
		GraphProvider:  GraphProviderPostgres,
		Neo4j:          neo4jdb.Config{User: "neo4j", Timeout: 10 * time.Second, MaxPoolSize: 50},
		Redis:          bus.Config{Channel: bus.DefaultChannel},
		Breaker:        BreakerConfig{Failures: 5, Timeout: 30 * time.Second},
	}
}

// LoadConfig layers defaults, the optional YAML file named by
// RECOMMENDER_CONFIG_FILE, and environment variables, in that order.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("RECOMMENDER_CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, &ConfigError{Code: ConfigErrorReadFile, Value: path, Cause: err}
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, &ConfigError{Code: ConfigErrorParseFile, Value: path, Cause: err}
		}
	}
	cfg, err := applyEnv(cfg)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg Config) (Config, error) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Environment = envutil.String("ENVIRONMENT", cfg.Environment)
	cfg.Version = envutil.String("SERVICE_VERSION", cfg.Version)
	cfg.HTTPAddr = envutil.String("HTTP_ADDR", cfg.HTTPAddr)
	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)
	cfg.RequestTimeout = envutil.Seconds("REQUEST_TIMEOUT_SECONDS", cfg.RequestTimeout)

	cfg.VectorProvider = VectorProvider(strings.ToLower(envutil.String("VECTOR_PROVIDER", string(cfg.VectorProvider))))
	cfg.GraphProvider = GraphProvider(strings.ToLower(envutil.String("GRAPH_PROVIDER", string(cfg.GraphProvider))))

	q, err := qdrant.ApplyEnv(cfg.Qdrant)
	if err != nil {
		return Config{}, &ConfigError{Code: ConfigErrorQdrant, Value: string(VectorProviderQdrant), Cause: err}
	}
	cfg.Qdrant = q

	cfg.Neo4j.URI = envutil.String("NEO4J_URI", cfg.Neo4j.URI)
	cfg.Neo4j.User = envutil.String("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Password = envutil.String("NEO4J_PASSWORD", cfg.Neo4j.Password)
	cfg.Neo4j.Database = envutil.String("NEO4J_DATABASE", cfg.Neo4j.Database)
	cfg.Neo4j.Timeout = envutil.Seconds("NEO4J_TIMEOUT_SECONDS", cfg.Neo4j.Timeout)
	cfg.Neo4j.MaxPoolSize = envutil.Int("NEO4J_MAX_POOL_SIZE", cfg.Neo4j.MaxPoolSize)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Breaker.Failures = envutil.Int("SOURCE_BREAKER_FAILURES", cfg.Breaker.Failures)
	cfg.Breaker.Timeout = envutil.Seconds("SOURCE_BREAKER_TIMEOUT_SECONDS", cfg.Breaker.Timeout)
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.VectorProvider {
	case VectorProviderPgvector:
	case VectorProviderQdrant:
		if err := qdrant.ValidateConfig(c.Qdrant); err != nil {
			return &ConfigError{Code: ConfigErrorQdrant, Value: string(c.VectorProvider), Cause: err}
		}
	default:
		return &ConfigError{
			Code:  ConfigErrorInvalidVectorProvider,
			Value: string(c.VectorProvider),
			Cause: errors.New("expected pgvector or qdrant"),
		}
	}
	switch c.GraphProvider {
	case GraphProviderPostgres:
	case GraphProviderNeo4j:
		if strings.TrimSpace(c.Neo4j.URI) == "" {
			return &ConfigError{Code: ConfigErrorMissingNeo4jURI, Value: string(c.GraphProvider)}
		}
	default:
		return &ConfigError{
			Code:  ConfigErrorInvalidGraphProvider,
			Value: string(c.GraphProvider),
			Cause: errors.New("expected postgres or neo4j"),
		}
	}
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return &ConfigError{Code: ConfigErrorMissingJWTSecret}
	}
	return nil
}
