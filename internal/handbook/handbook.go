// Package handbook owns the handbook document: a single Markdown file that
// is the source of truth for both rendering and the chatbot's knowledge.
package handbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound indicates the handbook file does not exist yet.
var ErrNotFound = errors.New("handbook not found")

// maxSeedBytes bounds the size of a seeded document.
const maxSeedBytes = 4 << 20 // 4 MiB

// Store reads and writes the handbook document file. Writes replace the
// whole document; there is no partial update.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a document store for the file at path.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the handbook file location.
func (s *Store) Path() string { return s.path }

// Read returns the raw handbook text. Returns ErrNotFound (wrapped) when
// the file does not exist.
func (s *Store) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return "", fmt.Errorf("reading handbook: %w", err)
	}
	return string(data), nil
}

// Write replaces the whole document. The content lands in a temp file first
// and is renamed into place, so a crash mid-write never leaves a truncated
// handbook behind.
func (s *Store) Write(content string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating handbook directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".handbook-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing handbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting handbook permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing handbook: %w", err)
	}

	s.logger.Debug("handbook written", "path", s.path, "bytes", len(content))
	return nil
}

// Seed fetches an initial document from url when no handbook file exists
// yet. Returns the seeded content, or ErrNotFound-free content when the
// file is already present. A fetch failure on a missing file is an error;
// first boot needs a document.
func (s *Store) Seed(ctx context.Context, url string) (string, error) {
	if content, err := s.Read(); err == nil {
		return content, nil
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building seed request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching seed document: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("seed document fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSeedBytes))
	if err != nil {
		return "", fmt.Errorf("reading seed document: %w", err)
	}

	if err := s.Write(string(data)); err != nil {
		return "", err
	}
	s.logger.Info("handbook seeded", "url", url, "bytes", len(data))
	return string(data), nil
}
