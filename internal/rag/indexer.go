package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trvcloud/corp-handbook/internal/chunker"
	"github.com/trvcloud/corp-handbook/internal/store"
)

// Embedder turns a unit of text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Replacer swaps the full chunk set for a new one.
type Replacer interface {
	ReplaceAll(ctx context.Context, records []store.Record) (int, error)
}

// Failure records one chunk whose embedding call failed during a reindex.
// Index is the chunk's position in document order.
type Failure struct {
	Index int
	Err   error
}

// Result summarizes a reindex run.
type Result struct {
	Chunks   int // chunks produced from the document
	Inserted int // rows written to the store
	Failures []Failure
}

// Indexer rebuilds the stored chunk embeddings from the handbook document.
type Indexer struct {
	embedder  Embedder
	store     Replacer
	chunkSize int
	logger    *slog.Logger
}

// NewIndexer creates an Indexer. chunkSize <= 0 selects the chunker default.
func NewIndexer(embedder Embedder, st Replacer, chunkSize int, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		embedder:  embedder,
		store:     st,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Reindex chunks the document, embeds each chunk and replaces the stored
// set with the successfully embedded ones in one operation.
//
// A failed embedding call skips that chunk and is recorded in the result;
// the batch always runs to completion. Only the final ReplaceAll failing
// aborts the run. An empty document clears the store.
func (idx *Indexer) Reindex(ctx context.Context, document string) (*Result, error) {
	chunks := chunker.Chunk(document, idx.chunkSize)
	result := &Result{Chunks: len(chunks)}

	records := make([]store.Record, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := idx.embedder.Embed(ctx, chunk)
		if err != nil {
			idx.logger.Warn("chunk embedding failed, skipping",
				"chunk_index", i, "error", err)
			result.Failures = append(result.Failures, Failure{Index: i, Err: err})
			continue
		}
		records = append(records, store.Record{Text: chunk, Embedding: vec})
	}

	inserted, err := idx.store.ReplaceAll(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("replacing chunk set: %w", err)
	}
	result.Inserted = inserted

	idx.logger.Info("handbook reindexed",
		"chunks", result.Chunks,
		"inserted", result.Inserted,
		"failed", len(result.Failures))
	return result, nil
}
