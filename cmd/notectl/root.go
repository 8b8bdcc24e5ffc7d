package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"notes-publisher/internal/app"
	"notes-publisher/internal/config"
	"notes-publisher/internal/logging"
	"notes-publisher/internal/service"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	backend string
)

var rootCmd = &cobra.Command{
	Use:   "notectl",
	Short: "Read and publish notes from the command line",
	Long: `notectl talks to the same note store as the server, configured from the
environment or a .env file. It is meant for operators and scripts.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "info"
		if verbose {
			level = "debug"
		}
		slog.SetDefault(logging.New(os.Stderr, level, "text"))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Override STORE_BACKEND (github, couchdb, memory)")
}

// openService loads configuration and opens the configured store.
func openService(ctx context.Context) (*service.NoteService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Store.Backend = backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := app.OpenStore(ctx, cfg, slog.Default())
	if err != nil {
		return nil, err
	}

	return app.NewNoteService(cfg, store, slog.Default()), nil
}
