package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/trvcloud/corp-handbook/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "corp-handbook",
	Short: "Employee handbook server with a RAG-backed chat assistant",
	Long: `corp-handbook serves the company employee handbook: a rendered
handbook page, an in-browser editor, and a chat assistant that answers
questions grounded in the handbook via retrieval-augmented generation.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	slog.SetDefault(initLogger())
	return rootCmd.Execute()
}

// initLogger builds the process logger. DEBUG enables debug level,
// LOG_FORMAT=json switches to JSON output.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{
		Level: level,
		JSON:  os.Getenv("LOG_FORMAT") == "json",
	})
}
