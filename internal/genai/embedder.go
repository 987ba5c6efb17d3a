// Package genai contains the HTTP clients for the platform-provided model
// endpoints: one for embeddings and one for chat completions.
//
// Both clients speak the Ollama-compatible JSON contract the platform's
// GenAI services expose and authenticate with a bearer key when one is
// configured. Neither client retries; retry policy belongs to callers.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single model round trip.
const DefaultTimeout = 60 * time.Second

// maxErrorBodyBytes caps how much of an error response is kept for
// diagnostics.
const maxErrorBodyBytes = 4 * 1024

// EmbeddingClient turns text into fixed-length vectors via the configured
// embeddings endpoint.
type EmbeddingClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// EmbeddingConfig configures an EmbeddingClient.
type EmbeddingConfig struct {
	Endpoint string        // full URL, e.g. http://localhost:11434/api/embeddings
	APIKey   string        // optional bearer token
	Model    string        // model identifier, e.g. nomic-embed-text
	Timeout  time.Duration // zero means DefaultTimeout
	Client   *http.Client  // optional, for tests; Timeout is ignored when set
}

// NewEmbeddingClient creates an embeddings client from config.
func NewEmbeddingClient(cfg EmbeddingConfig) *EmbeddingClient {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &EmbeddingClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   client,
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the embedding vector for text. Non-success statuses yield a
// *RemoteError; a success response without a vector yields
// ErrMalformedResponse.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}

	respBody, err := postJSON(ctx, c.client, c.endpoint, c.apiKey, body)
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", ErrMalformedResponse)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embed response has no embedding field: %w", ErrMalformedResponse)
	}
	return resp.Embedding, nil
}

// postJSON performs one POST round trip and returns the response body.
// Shared by both clients.
func postJSON(ctx context.Context, client *http.Client, endpoint, apiKey string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &RemoteError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(detail)}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", endpoint, err)
	}
	return respBody, nil
}
