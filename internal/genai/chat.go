package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ChatClient sends chat completion requests to the configured endpoint.
type ChatClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// ChatConfig configures a ChatClient.
type ChatConfig struct {
	Endpoint string        // full URL, e.g. http://localhost:11434/api/chat
	APIKey   string        // optional bearer token
	Model    string        // model identifier, e.g. gemma2
	Timeout  time.Duration // zero means DefaultTimeout
	Client   *http.Client  // optional, for tests; Timeout is ignored when set
}

// NewChatClient creates a chat client from config.
func NewChatClient(cfg ChatConfig) *ChatClient {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &ChatClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   client,
	}
}

// Message is one turn of a chat request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

// Complete sends a two-turn request: a system message carrying the grounding
// instructions and context, and a user message carrying the question
// verbatim. Keeping instructions and user input in separate turns avoids
// prompt-injection ambiguity between the two.
//
// Returns the model's answer text. Non-success statuses yield a
// *RemoteError; a success response without message content yields
// ErrMalformedResponse.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	respBody, err := postJSON(ctx, c.client, c.endpoint, c.apiKey, body)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", ErrMalformedResponse)
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("chat response has no message content: %w", ErrMalformedResponse)
	}
	return resp.Message.Content, nil
}
