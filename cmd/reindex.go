package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/trvcloud/corp-handbook/internal/config"
	"github.com/trvcloud/corp-handbook/internal/handbook"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the chunk embeddings from the handbook document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		ctx := cmd.Context()
		logger := slog.Default()

		pool, cleanup, err := setupPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		c, err := buildComponents(cfg, pool, logger)
		if err != nil {
			return err
		}

		document, err := c.handbook.Read()
		if err != nil {
			if errors.Is(err, handbook.ErrNotFound) {
				return fmt.Errorf("no handbook document at %s", cfg.HandbookPath)
			}
			return fmt.Errorf("reading handbook: %w", err)
		}

		result, err := c.indexer.Reindex(ctx, document)
		if err != nil {
			return err
		}

		fmt.Printf("Reindexed: %d chunks, %d stored, %d failed\n",
			result.Chunks, result.Inserted, len(result.Failures))
		for _, f := range result.Failures {
			fmt.Printf("  chunk %d: %v\n", f.Index, f.Err)
		}
		if len(result.Failures) > 0 {
			return fmt.Errorf("%d chunk(s) failed to embed", len(result.Failures))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
