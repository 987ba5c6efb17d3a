package config

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrInvalidEndpoint indicates a model endpoint URL is missing or malformed.
	ErrInvalidEndpoint = errors.New("invalid model endpoint")

	// ErrInvalidModelName indicates an empty model identifier.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidChunkSize indicates the chunk size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidTopN indicates the retrieval fan-out is out of range.
	ErrInvalidTopN = errors.New("invalid top_n")

	// ErrInvalidDimension indicates the embedding dimension is out of range.
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrInvalidMetric indicates an unsupported distance metric.
	ErrInvalidMetric = errors.New("invalid distance metric")

	// ErrInvalidReindexPolicy indicates an unknown reindex policy.
	ErrInvalidReindexPolicy = errors.New("invalid reindex policy")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidHandbookPath indicates the handbook path is empty.
	ErrInvalidHandbookPath = errors.New("invalid handbook path")
)

// Validate checks the configuration, failing fast with the first problem.
func (c *Config) Validate() error {
	if err := validateEndpoint(c.EmbeddingEndpoint, "embedding"); err != nil {
		return err
	}
	if err := validateEndpoint(c.ChatEndpoint, "chat"); err != nil {
		return err
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: embedding model is empty", ErrInvalidModelName)
	}
	if c.ChatModel == "" {
		return fmt.Errorf("%w: chat model is empty", ErrInvalidModelName)
	}

	if c.ChunkSize < 1 || c.ChunkSize > 1<<20 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.TopN < 1 || c.TopN > 100 {
		return fmt.Errorf("%w: %d (must be 1-100)", ErrInvalidTopN, c.TopN)
	}
	if c.EmbeddingDimension < 1 || c.EmbeddingDimension > 16000 {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, c.EmbeddingDimension)
	}

	switch c.DistanceMetric {
	case "l2", "cosine":
	default:
		return fmt.Errorf("%w: %q (must be l2 or cosine)", ErrInvalidMetric, c.DistanceMetric)
	}

	switch c.ReindexPolicy {
	case ReindexBackground, ReindexBlocking:
	default:
		return fmt.Errorf("%w: %q (must be %s or %s)",
			ErrInvalidReindexPolicy, c.ReindexPolicy, ReindexBackground, ReindexBlocking)
	}

	if c.HandbookPath == "" {
		return ErrInvalidHandbookPath
	}

	if c.PostgresHost == "" {
		return ErrInvalidPostgresHost
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	return nil
}

func validateEndpoint(endpoint, name string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: %s endpoint is empty", ErrInvalidEndpoint, name)
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s endpoint %q", ErrInvalidEndpoint, name, endpoint)
	}
	return nil
}
