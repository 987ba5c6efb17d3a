package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo})

	logger.Info("handbook updated", "bytes", 42)

	out := buf.String()
	if !strings.Contains(out, "handbook updated") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "bytes=42") {
		t.Errorf("expected attribute in output, got %q", out)
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{JSON: true})

	logger.Info("reindex complete", "chunks", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "reindex complete" {
		t.Errorf("msg = %v, want %q", entry["msg"], "reindex complete")
	}
	if entry["chunks"] != float64(7) {
		t.Errorf("chunks = %v, want 7", entry["chunks"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("low-level entries leaked into output: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn entry missing from output: %q", out)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must accept all levels.
	logger.Debug("x")
	logger.Info("x")
	logger.Error("x")
}
