// Package store persists handbook chunk embeddings in PostgreSQL and serves
// nearest-neighbor queries through the pgvector extension.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// Metric selects the vector distance semantics used by Nearest.
type Metric string

// Supported distance metrics, mapped to pgvector operators.
const (
	MetricL2     Metric = "l2"     // Euclidean distance, operator <->
	MetricCosine Metric = "cosine" // cosine distance, operator <=>
)

// ErrInvalidMetric indicates an unsupported distance metric.
var ErrInvalidMetric = errors.New("invalid distance metric")

// operator returns the pgvector order-by operator for the metric.
func (m Metric) operator() (string, error) {
	switch m {
	case MetricL2:
		return "<->", nil
	case MetricCosine:
		return "<=>", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMetric, string(m))
	}
}

// reindexLockKey is the advisory lock key serializing full-table replaces.
// All writers take this lock inside the replace transaction, so concurrent
// reindex runs cannot interleave their delete+insert sequences.
const reindexLockKey = int64(0x68616e64626b) // "handbk"

// Record is one (chunk text, embedding) pair to persist.
type Record struct {
	Text      string
	Embedding []float32
}

// DB is the subset of pgxpool.Pool the store needs. Defined here so tests
// can substitute a mock.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is the vector store adapter over the handbook_chunks table.
// Safe for concurrent use; writers serialize on a Postgres advisory lock.
type Store struct {
	db      DB
	metric  Metric
	orderOp string
	logger  *slog.Logger
}

// New creates a Store using the given distance metric.
func New(db DB, metric Metric, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	op, err := metric.operator()
	if err != nil {
		return nil, err
	}
	return &Store{
		db:      db,
		metric:  metric,
		orderOp: op,
		logger:  logger,
	}, nil
}

// Metric reports the configured distance metric.
func (s *Store) Metric() Metric { return s.metric }

// ReplaceAll deletes every stored chunk and inserts the given records in
// order, all inside one transaction guarded by an advisory lock. Readers
// observe either the previous set or the new set, never a partial one.
// Returns the number of rows inserted.
func (s *Store) ReplaceAll(ctx context.Context, records []Record) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, reindexLockKey); err != nil {
		return 0, fmt.Errorf("acquiring reindex lock: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM handbook_chunks`); err != nil {
		return 0, fmt.Errorf("clearing handbook chunks: %w", err)
	}

	for i, rec := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO handbook_chunks (chunk_text, embedding) VALUES ($1, $2)`,
			rec.Text, pgvector.NewVector(rec.Embedding),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing replace: %w", err)
	}

	s.logger.Debug("replaced handbook chunks", "count", len(records))
	return len(records), nil
}

// Nearest returns up to topN stored chunk texts ordered by ascending
// distance to the query vector. A topN above the row count returns all
// rows; an empty table or non-positive topN returns an empty slice.
func (s *Store) Nearest(ctx context.Context, query []float32, topN int) ([]string, error) {
	if topN <= 0 {
		return nil, nil
	}

	sql := fmt.Sprintf(
		`SELECT chunk_text FROM handbook_chunks ORDER BY embedding %s $1 LIMIT $2`,
		s.orderOp,
	)
	rows, err := s.db.Query(ctx, sql, pgvector.NewVector(query), topN)
	if err != nil {
		return nil, fmt.Errorf("querying nearest chunks: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning chunk text: %w", err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading nearest chunks: %w", err)
	}
	return texts, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM handbook_chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}
