package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/trvcloud/corp-handbook/internal/handbook"
)

// ServerConfig contains the collaborators the web server is wired with.
type ServerConfig struct {
	Logger   *slog.Logger
	Handbook *handbook.Store // Required
	Indexer  Reindexer       // Required
	Answerer Answerer        // Required

	// BlockingReindex makes POST /update-handbook wait for the index
	// rebuild and fail the request when it fails. When false the rebuild
	// runs detached and failures are logged only.
	BlockingReindex bool
}

// Server is the handbook HTTP server: rendered pages, the editor flow, and
// the JSON chat API.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Handbook == nil {
		return nil, errors.New("handbook store is required")
	}
	if cfg.Indexer == nil {
		return nil, errors.New("indexer is required")
	}
	if cfg.Answerer == nil {
		return nil, errors.New("answerer is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pages, err := newPageHandler(cfg.Handbook, cfg.Indexer, cfg.BlockingReindex, logger)
	if err != nil {
		return nil, err
	}
	chat := &chatHandler{answerer: cfg.Answerer, logger: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", pages.landing)
	mux.HandleFunc("GET /handbook", pages.viewHandbook)
	mux.HandleFunc("GET /edit-handbook", pages.editHandbook)
	mux.HandleFunc("POST /update-handbook", pages.updateHandbook)
	mux.HandleFunc("GET /chatbot", pages.chatbot)

	mux.HandleFunc("POST /api/chat", chat.send)

	mux.Handle("GET /static/", http.FileServerFS(staticFS))

	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probe stays outside the middleware stack so probe traffic does
	// not pollute request logs.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /healthz", healthz)
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
