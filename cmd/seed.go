package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/trvcloud/corp-handbook/internal/config"
	"github.com/trvcloud/corp-handbook/internal/handbook"
)

var seedCmd = &cobra.Command{
	Use:   "seed [url]",
	Short: "Fetch an initial handbook document if none exists",
	Long: `seed downloads the handbook document from the given URL (or the
configured seed_url) and writes it to the handbook path. An existing
handbook file is left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		url := cfg.SeedURL
		if len(args) == 1 {
			url = args[0]
		}
		if url == "" {
			return fmt.Errorf("no seed URL: pass one as an argument or set seed_url")
		}

		hb := handbook.New(cfg.HandbookPath, slog.Default())
		content, err := hb.Seed(cmd.Context(), url)
		if err != nil {
			return fmt.Errorf("seeding handbook: %w", err)
		}

		fmt.Printf("Handbook at %s (%d bytes)\n", cfg.HandbookPath, len(content))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
