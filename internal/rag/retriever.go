package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrEmptyQuestion rejects a blank question before any backend call.
var ErrEmptyQuestion = errors.New("empty question")

// DefaultTopN is the number of chunks retrieved per question when the
// caller does not configure one.
const DefaultTopN = 5

// Searcher serves nearest-neighbor queries against the chunk store.
type Searcher interface {
	Nearest(ctx context.Context, query []float32, topN int) ([]string, error)
}

// Completer sends a grounded chat request and returns the answer text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// systemPrompt carries the grounding instructions and the retrieved
// context. It is the system turn; the user's question travels verbatim in
// its own turn so instructions and user input stay separated.
const systemPrompt = `You are the assistant for the company employee handbook.
Answer the employee's question using only the handbook excerpts below.
If the excerpts do not contain the answer, say that the handbook does not cover it.
Do not invent policies.

Handbook excerpts:

%s`

// Retriever answers questions grounded in the stored handbook chunks.
type Retriever struct {
	embedder Embedder
	searcher Searcher
	chat     Completer
	topN     int
	logger   *slog.Logger
}

// NewRetriever creates a Retriever. topN <= 0 selects DefaultTopN.
func NewRetriever(embedder Embedder, searcher Searcher, chat Completer, topN int, logger *slog.Logger) *Retriever {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
		chat:     chat,
		topN:     topN,
		logger:   logger,
	}
}

// Answer embeds the question, retrieves the nearest chunks and asks the
// model for an answer grounded in them. An empty or whitespace-only
// question returns ErrEmptyQuestion without touching any backend. Any
// embedding, search or completion failure aborts the request; there is no
// answer-without-context fallback. An empty store is not an error: the
// model is simply given no excerpts.
func (r *Retriever) Answer(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embedding question: %w", err)
	}

	chunks, err := r.searcher.Nearest(ctx, vec, r.topN)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}

	context := strings.Join(chunks, "\n\n")
	r.logger.Debug("retrieved grounding context",
		"chunks", len(chunks), "context_bytes", len(context))

	answer, err := r.chat.Complete(ctx, fmt.Sprintf(systemPrompt, context), question)
	if err != nil {
		return "", fmt.Errorf("completing answer: %w", err)
	}
	return answer, nil
}
