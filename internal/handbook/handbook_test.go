package handbook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/trvcloud/corp-handbook/internal/log"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "handbook.md"), log.NewNop())
}

func TestReadMissingFile(t *testing.T) {
	s := tempStore(t)
	_, err := s.Read()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWriteThenRead(t *testing.T) {
	s := tempStore(t)

	const content = "# Handbook\n\nBe kind."
	if err := s.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != content {
		t.Errorf("Read = %q, want %q", got, content)
	}
}

func TestWriteReplacesWholeDocument(t *testing.T) {
	s := tempStore(t)

	if err := s.Write("original long content that should fully disappear"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write("short"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "short" {
		t.Errorf("Read = %q, want %q", got, "short")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "handbook.md"), log.NewNop())

	if err := s.Write("content"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "handbook.md" {
		t.Errorf("directory contents = %v, want only handbook.md", entries)
	}
}

func TestSeedFetchesWhenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# Seeded Handbook"))
	}))
	defer srv.Close()

	s := tempStore(t)
	content, err := s.Seed(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if content != "# Seeded Handbook" {
		t.Errorf("Seed = %q", content)
	}

	got, err := s.Read()
	if err != nil || got != "# Seeded Handbook" {
		t.Errorf("Read after seed = %q, %v", got, err)
	}
}

func TestSeedSkipsExistingFile(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	s := tempStore(t)
	if err := s.Write("existing"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	content, err := s.Seed(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if content != "existing" {
		t.Errorf("Seed = %q, want existing content", content)
	}
	if called {
		t.Error("seed must not fetch when the handbook already exists")
	}
}

func TestSeedFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s := tempStore(t)
	if _, err := s.Seed(context.Background(), srv.URL); err == nil {
		t.Error("expected error when seed fetch fails on a missing handbook")
	}
}
