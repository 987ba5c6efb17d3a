package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteSuccess(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: Message{Role: "assistant", Content: "Ten days per year."},
		})
	}))
	defer srv.Close()

	client := NewChatClient(ChatConfig{Endpoint: srv.URL, APIKey: "k", Model: "gemma2"})

	answer, err := client.Complete(context.Background(), "Answer from context only.", "How many vacation days?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if answer != "Ten days per year." {
		t.Errorf("answer = %q", answer)
	}

	if gotReq.Stream {
		t.Error("stream must be false")
	}
	if gotReq.Model != "gemma2" {
		t.Errorf("model = %q, want gemma2", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("roles = %q/%q, want system/user", gotReq.Messages[0].Role, gotReq.Messages[1].Role)
	}
	// The user turn carries the question verbatim.
	if gotReq.Messages[1].Content != "How many vacation days?" {
		t.Errorf("user content = %q, question was altered", gotReq.Messages[1].Content)
	}
}

func TestCompleteRemoteErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"backend exploded"}`))
	}))
	defer srv.Close()

	client := NewChatClient(ChatConfig{Endpoint: srv.URL, Model: "m"})
	_, err := client.Complete(context.Background(), "sys", "user")

	re, ok := AsRemoteError(err)
	if !ok {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if re.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", re.Status)
	}
	if re.Body != `{"error":"backend exploded"}` {
		t.Errorf("Body = %q, want backend body preserved", re.Body)
	}
}

func TestCompleteMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "hello"},
		{"missing message", `{"done": true}`},
		{"empty content", `{"message": {"role": "assistant", "content": ""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewChatClient(ChatConfig{Endpoint: srv.URL, Model: "m"})
			_, err := client.Complete(context.Background(), "s", "u")
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("err = %v, want ErrMalformedResponse", err)
			}
		})
	}
}
