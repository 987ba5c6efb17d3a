// Package config provides application configuration with layered resolution.
//
// Sources, highest to lowest priority:
//  1. Platform service registry (Cloud Foundry VCAP_SERVICES)
//  2. Environment variables (DATABASE_URL and explicit bindings)
//  3. Config file (config.yaml in the working directory)
//  4. Default values (local development: Ollama + local Postgres)
//
// Sensitive values (API keys, database password) are never logged.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/cloudfoundry-community/go-cfenv"
	"github.com/spf13/viper"
)

// Reindex policies for the update-handbook flow.
const (
	// ReindexBackground redirects immediately after a document update and
	// reindexes asynchronously; failures are logged only.
	ReindexBackground = "background"

	// ReindexBlocking reindexes before responding and fails the update
	// request when reindexing fails.
	ReindexBlocking = "blocking"
)

// Local development defaults, matching a stock Ollama and Postgres setup.
const (
	DefaultEmbeddingEndpoint = "http://localhost:11434/api/embeddings"
	DefaultChatEndpoint      = "http://localhost:11434/api/chat"
	DefaultEmbeddingModel    = "nomic-embed-text"
	DefaultChatModel         = "gemma2"

	// DefaultEmbeddingDimension is the output width of the default
	// embedding model; the handbook_chunks schema must match it.
	DefaultEmbeddingDimension = 768
)

// Config stores the resolved application configuration. Constructed once at
// startup and passed into component constructors; never read from global
// scope inside pipeline logic.
type Config struct {
	// HTTP server
	HTTPAddr string `mapstructure:"http_addr"`

	// Handbook document
	HandbookPath string `mapstructure:"handbook_path"`
	SeedURL      string `mapstructure:"seed_url"`

	// RAG tuning
	ChunkSize      int    `mapstructure:"chunk_size"`
	TopN           int    `mapstructure:"top_n"`
	DistanceMetric string `mapstructure:"distance_metric"` // "l2" or "cosine"
	ReindexPolicy  string `mapstructure:"reindex_policy"`  // "background" or "blocking"

	// Embedding model endpoint
	EmbeddingEndpoint  string `mapstructure:"embedding_endpoint"`
	EmbeddingAPIKey    string `mapstructure:"embedding_api_key"` // SENSITIVE
	EmbeddingModel     string `mapstructure:"embedding_model"`
	EmbeddingDimension int    `mapstructure:"embedding_dimension"`

	// Chat model endpoint
	ChatEndpoint string `mapstructure:"chat_endpoint"`
	ChatAPIKey   string `mapstructure:"chat_api_key"` // SENSITIVE
	ChatModel    string `mapstructure:"chat_model"`

	// Outbound call timeout, applied to embedding and chat clients.
	ClientTimeoutSeconds int `mapstructure:"client_timeout_seconds"`

	// PostgreSQL connection (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`
}

// ClientTimeout returns the outbound call timeout as a duration.
func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.ClientTimeoutSeconds) * time.Second
}

// Load resolves configuration from all sources and validates it.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// The platform registry, when present, outranks everything.
	if app, err := cfenv.Current(); err == nil {
		if err := cfg.applyPlatform(app); err != nil {
			return nil, fmt.Errorf("resolving platform services: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers the local-development defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")

	v.SetDefault("handbook_path", "handbook.md")
	v.SetDefault("seed_url", "")

	v.SetDefault("chunk_size", 500)
	v.SetDefault("top_n", 5)
	v.SetDefault("distance_metric", "l2")
	v.SetDefault("reindex_policy", ReindexBackground)

	v.SetDefault("embedding_endpoint", DefaultEmbeddingEndpoint)
	v.SetDefault("embedding_model", DefaultEmbeddingModel)
	v.SetDefault("embedding_dimension", DefaultEmbeddingDimension)

	v.SetDefault("chat_endpoint", DefaultChatEndpoint)
	v.SetDefault("chat_model", DefaultChatModel)

	v.SetDefault("client_timeout_seconds", 60)

	v.SetDefault("postgres_host", "127.0.0.1")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "postgres")
	v.SetDefault("postgres_password", "postgres")
	v.SetDefault("postgres_db_name", "postgres-db")
	v.SetDefault("postgres_ssl_mode", "disable")
}

// bindEnvVariables binds the environment variables used outside the
// platform registry. Names match the original deployment's conventions.
func bindEnvVariables(v *viper.Viper) {
	// BindEnv only errors on an empty key; these are all non-empty.
	_ = v.BindEnv("http_addr", "HTTP_ADDR")
	_ = v.BindEnv("handbook_path", "HANDBOOK_FILE")
	_ = v.BindEnv("seed_url", "HANDBOOK_SEED_URL")
	_ = v.BindEnv("reindex_policy", "REINDEX_POLICY")
	_ = v.BindEnv("embedding_endpoint", "EMBEDDING_ENDPOINT")
	_ = v.BindEnv("embedding_api_key", "EMBEDDING_API_KEY")
	_ = v.BindEnv("embedding_model", "EMBEDDING_MODEL")
	_ = v.BindEnv("chat_endpoint", "LLM_CHAT_ENDPOINT")
	_ = v.BindEnv("chat_api_key", "LLM_API_KEY")
	_ = v.BindEnv("chat_model", "LLM_MODEL")
	_ = v.BindEnv("postgres_password", "POSTGRES_PASSWORD")
}
