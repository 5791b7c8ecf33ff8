package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"portfolio-cms/internal/auth"
	"portfolio-cms/internal/config"
	"portfolio-cms/internal/content"
	"portfolio-cms/internal/storage"
	"portfolio-cms/internal/upload"
)

var (
	cfgFile string
	verbose bool
)

// cli holds what every command needs once the config is loaded.
type cli struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *storage.JSONStore
	content *content.Service
	uploads *upload.Gateway
}

var app cli

var rootCmd = &cobra.Command{
	Use:   "cms-cli",
	Short: "Manage portfolio case-study content from the command line",
	Long: `cms-cli edits the flat-file case-study store directly: it scaffolds new
case studies, lists, adds, deletes and reorders sections, and manages the
bucketed images. It works on the same storage root as the server and acts
as the site owner, so no password is needed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
}

func initializeApp() error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(cfgFile, logger)
	if err != nil {
		return err
	}

	store, err := storage.NewJSONStore(cfg.Storage.Root, cfg.Storage.PublicPrefix, logger)
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}

	app = cli{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		content: content.NewService(store, logger),
		uploads: upload.NewGateway(store, logger),
	}
	return nil
}

// operatorContext carries the local owner session required by mutations.
func operatorContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return auth.WithSession(ctx, auth.OperatorSession())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./portfolio.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}
