package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"github.com/trvcloud/corp-handbook/internal/handbook"
	"github.com/trvcloud/corp-handbook/internal/rag"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// backgroundReindexTimeout bounds a detached reindex run so a hung embedding
// backend cannot leak goroutines forever.
const backgroundReindexTimeout = 5 * time.Minute

// Reindexer rebuilds the chunk index from a document.
type Reindexer interface {
	Reindex(ctx context.Context, document string) (*rag.Result, error)
}

// pageHandler serves the rendered handbook pages and the editor flow.
type pageHandler struct {
	handbook  *handbook.Store
	indexer   Reindexer
	blocking  bool
	templates *template.Template
	markdown  goldmark.Markdown
	logger    *slog.Logger
}

func newPageHandler(hb *handbook.Store, indexer Reindexer, blocking bool, logger *slog.Logger) (*pageHandler, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &pageHandler{
		handbook:  hb,
		indexer:   indexer,
		blocking:  blocking,
		templates: templates,
		markdown:  goldmark.New(),
		logger:    logger,
	}, nil
}

// render executes a template into a buffer first so a failed render can still
// produce a clean 500 instead of a half-written page.
func (h *pageHandler) render(w http.ResponseWriter, name string, data any) {
	buf := new(bytes.Buffer)
	if err := h.templates.ExecuteTemplate(buf, name, data); err != nil {
		h.logger.Error("rendering page", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("writing page body", "template", name, "error", err)
	}
}

func (h *pageHandler) landing(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "landing.html", nil)
}

func (h *pageHandler) viewHandbook(w http.ResponseWriter, _ *http.Request) {
	raw, err := h.handbook.Read()
	switch {
	case errors.Is(err, handbook.ErrNotFound):
		raw = ""
	case err != nil:
		h.logger.Error("reading handbook", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var rendered bytes.Buffer
	if err := h.markdown.Convert([]byte(raw), &rendered); err != nil {
		h.logger.Error("converting handbook markdown", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, "handbook.html", map[string]any{
		// The document is trusted internal content authored via the editor.
		"Content": template.HTML(rendered.String()), //nolint:gosec
		"Empty":   raw == "",
	})
}

func (h *pageHandler) editHandbook(w http.ResponseWriter, _ *http.Request) {
	raw, err := h.handbook.Read()
	switch {
	case errors.Is(err, handbook.ErrNotFound):
		raw = ""
	case err != nil:
		h.logger.Error("reading handbook", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, "edit_handbook.html", map[string]any{"Content": raw})
}

func (h *pageHandler) updateHandbook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	content := r.PostFormValue("handbook_content")

	if err := h.handbook.Write(content); err != nil {
		h.logger.Error("writing handbook", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if h.blocking {
		result, err := h.indexer.Reindex(r.Context(), content)
		if err != nil {
			h.logger.Error("reindexing handbook", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		h.logReindex(result)
	} else {
		// Detach from the request context so the redirect does not cancel
		// the index rebuild mid-flight.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), backgroundReindexTimeout)
		go func() {
			defer cancel()
			result, err := h.indexer.Reindex(ctx, content)
			if err != nil {
				h.logger.Error("reindexing handbook", "error", err)
				return
			}
			h.logReindex(result)
		}()
	}

	http.Redirect(w, r, "/handbook", http.StatusSeeOther)
}

func (h *pageHandler) logReindex(result *rag.Result) {
	if len(result.Failures) == 0 {
		h.logger.Info("handbook reindexed", "chunks", result.Chunks, "inserted", result.Inserted)
		return
	}
	for _, f := range result.Failures {
		h.logger.Warn("chunk embedding failed during reindex", "chunk_index", f.Index, "error", f.Err)
	}
	h.logger.Warn("handbook reindexed with failures",
		"chunks", result.Chunks,
		"inserted", result.Inserted,
		"failed", len(result.Failures),
	)
}

func (h *pageHandler) chatbot(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "chatbot.html", nil)
}
