package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/trvcloud/corp-handbook/internal/log"
	"github.com/trvcloud/corp-handbook/internal/store"
)

// mockEmbedder fails for texts listed in failOn and otherwise returns a
// fixed vector, recording every input.
type mockEmbedder struct {
	inputs []string
	failOn map[string]bool
	vec    []float32
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.inputs = append(m.inputs, text)
	if m.failOn[text] {
		return nil, errors.New("embedding backend down")
	}
	if m.vec != nil {
		return m.vec, nil
	}
	return []float32{1, 2, 3}, nil
}

type mockReplacer struct {
	records []store.Record
	err     error
	calls   int
}

func (m *mockReplacer) ReplaceAll(_ context.Context, records []store.Record) (int, error) {
	m.calls++
	m.records = records
	if m.err != nil {
		return 0, m.err
	}
	return len(records), nil
}

func TestReindexAllChunksSucceed(t *testing.T) {
	embedder := &mockEmbedder{}
	replacer := &mockReplacer{}
	idx := NewIndexer(embedder, replacer, 500, log.NewNop())

	result, err := idx.Reindex(context.Background(), "First policy.\n\nSecond policy.\n\nThird policy.")
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if result.Chunks != 3 || result.Inserted != 3 || len(result.Failures) != 0 {
		t.Errorf("result = %+v, want 3 chunks, 3 inserted, no failures", result)
	}
	if replacer.calls != 1 {
		t.Errorf("ReplaceAll called %d times, want exactly once", replacer.calls)
	}
	// Insert order follows document order.
	want := []string{"First policy.", "Second policy.", "Third policy."}
	for i := range want {
		if replacer.records[i].Text != want[i] {
			t.Errorf("record[%d] = %q, want %q", i, replacer.records[i].Text, want[i])
		}
	}
}

func TestReindexToleratesChunkFailures(t *testing.T) {
	embedder := &mockEmbedder{failOn: map[string]bool{"Second policy.": true}}
	replacer := &mockReplacer{}
	idx := NewIndexer(embedder, replacer, 500, log.NewNop())

	result, err := idx.Reindex(context.Background(), "First policy.\n\nSecond policy.\n\nThird policy.")
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	if result.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", result.Inserted)
	}
	if len(result.Failures) != 1 || result.Failures[0].Index != 1 {
		t.Fatalf("Failures = %+v, want one failure at index 1", result.Failures)
	}
	if result.Failures[0].Err == nil {
		t.Error("failure must carry the underlying error")
	}
	// The batch continued past the failure.
	if len(embedder.inputs) != 3 {
		t.Errorf("embedder called %d times, want 3", len(embedder.inputs))
	}
	if len(replacer.records) != 2 {
		t.Errorf("stored %d records, want 2", len(replacer.records))
	}
}

func TestReindexEmptyDocumentClearsStore(t *testing.T) {
	replacer := &mockReplacer{}
	idx := NewIndexer(&mockEmbedder{}, replacer, 500, log.NewNop())

	result, err := idx.Reindex(context.Background(), "")
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if result.Chunks != 0 || result.Inserted != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
	if replacer.calls != 1 {
		t.Error("empty document must still replace (clear) the chunk set")
	}
}

func TestReindexStoreFailureAborts(t *testing.T) {
	replacer := &mockReplacer{err: errors.New("connection lost")}
	idx := NewIndexer(&mockEmbedder{}, replacer, 500, log.NewNop())

	if _, err := idx.Reindex(context.Background(), "Some policy."); err == nil {
		t.Error("expected error when the store replace fails")
	}
}
