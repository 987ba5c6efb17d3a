package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/trvcloud/corp-handbook/db"
	"github.com/trvcloud/corp-handbook/internal/config"
	"github.com/trvcloud/corp-handbook/internal/genai"
	"github.com/trvcloud/corp-handbook/internal/handbook"
	"github.com/trvcloud/corp-handbook/internal/rag"
	"github.com/trvcloud/corp-handbook/internal/store"
	"github.com/trvcloud/corp-handbook/internal/web"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // blocking reindex can take a while
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the handbook HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting handbook server", "version", Version)

	pool, cleanup, err := setupPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	components, err := buildComponents(cfg, pool, logger)
	if err != nil {
		return err
	}

	if cfg.SeedURL != "" {
		if _, err := components.handbook.Seed(ctx, cfg.SeedURL); err != nil {
			logger.Warn("seeding handbook failed", "url", cfg.SeedURL, "error", err)
		}
	}
	if err := initialIndex(ctx, components, logger); err != nil {
		logger.Warn("initial handbook indexing failed", "error", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Logger:          logger,
		Handbook:        components.handbook,
		Indexer:         components.indexer,
		Answerer:        components.retriever,
		BlockingReindex: cfg.ReindexPolicy == config.ReindexBlocking,
	})
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}

	srv := &http.Server{
		Addr:              listenAddr(cfg),
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", srv.Addr,
		"handbook", cfg.HandbookPath,
		"reindex_policy", cfg.ReindexPolicy,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}

// components bundles everything the serve and reindex commands wire up.
type components struct {
	handbook  *handbook.Store
	store     *store.Store
	indexer   *rag.Indexer
	retriever *rag.Retriever
}

func buildComponents(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*components, error) {
	hb := handbook.New(cfg.HandbookPath, logger)

	embedder := genai.NewEmbeddingClient(genai.EmbeddingConfig{
		Endpoint: cfg.EmbeddingEndpoint,
		APIKey:   cfg.EmbeddingAPIKey,
		Model:    cfg.EmbeddingModel,
		Timeout:  cfg.ClientTimeout(),
	})
	chat := genai.NewChatClient(genai.ChatConfig{
		Endpoint: cfg.ChatEndpoint,
		APIKey:   cfg.ChatAPIKey,
		Model:    cfg.ChatModel,
		Timeout:  cfg.ClientTimeout(),
	})

	st, err := store.New(pool, store.Metric(cfg.DistanceMetric), logger)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	return &components{
		handbook:  hb,
		store:     st,
		indexer:   rag.NewIndexer(embedder, st, cfg.ChunkSize, logger),
		retriever: rag.NewRetriever(embedder, st, chat, cfg.TopN, logger),
	}, nil
}

// setupPool creates the PostgreSQL connection pool and runs migrations.
func setupPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// initialIndex populates an empty chunk store from an existing handbook so a
// fresh deployment can answer questions before the first edit.
func initialIndex(ctx context.Context, c *components, logger *slog.Logger) error {
	count, err := c.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting stored chunks: %w", err)
	}
	if count > 0 {
		return nil
	}

	document, err := c.handbook.Read()
	if err != nil {
		if errors.Is(err, handbook.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("reading handbook: %w", err)
	}

	result, err := c.indexer.Reindex(ctx, document)
	if err != nil {
		return err
	}
	logger.Info("initial handbook index built",
		"chunks", result.Chunks,
		"inserted", result.Inserted,
		"failed", len(result.Failures),
	)
	return nil
}

// listenAddr resolves the HTTP listen address. A platform-assigned PORT
// (Cloud Foundry convention) outranks the configured address.
func listenAddr(cfg *config.Config) string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return cfg.HTTPAddr
}
