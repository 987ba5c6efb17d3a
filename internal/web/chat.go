package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/trvcloud/corp-handbook/internal/genai"
)

// maxChatBodyBytes caps inbound chat request bodies.
const maxChatBodyBytes = 1 << 20 // 1 MiB

// Answerer produces a grounded answer for a user question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type chatError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// chatHandler serves the JSON chat API backed by the retrieval pipeline.
type chatHandler struct {
	answerer Answerer
	logger   *slog.Logger
}

func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatError{Error: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, chatError{Error: "No message provided"})
		return
	}

	answer, err := h.answerer.Answer(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("answering chat question", "error", err)

		if remote, ok := genai.AsRemoteError(err); ok {
			writeJSON(w, http.StatusInternalServerError, chatError{
				Error:   fmt.Sprintf("backend request failed with status %d", remote.Status),
				Details: remote.Body,
			})
			return
		}
		if errors.Is(err, genai.ErrMalformedResponse) {
			writeJSON(w, http.StatusInternalServerError, chatError{
				Error:   "backend returned an unexpected response",
				Details: err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, chatError{
			Error:   "failed to answer question",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: answer})
}
