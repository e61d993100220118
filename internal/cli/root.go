// Package cli defines the cobra command tree for homewatch.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"homewatch/server/config"
	"homewatch/server/internal/storage"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "homewatch",
		Short:         "Track property listings and seller motivation",
		Long:          "Tracks property listings across watchlists, records status and price history, and scores how motivated each seller looks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newScanCmd(),
		newScoreCmd(),
	)

	return root
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	return logger
}

// openStore builds the store selected by the configuration.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (storage.Store, error) {
	switch cfg.Database.Backend {
	case "sqlite":
		logger.WithField("path", cfg.Database.SQLitePath).Info("Using sqlite database")
		return storage.NewSQLiteStore(cfg.Database.SQLitePath, logger)
	case "postgres":
		if cfg.Database.PostgresURL == "" {
			return nil, fmt.Errorf("DB_POSTGRES_URL required for the postgres backend")
		}
		logger.Info("Using postgres database")
		return storage.NewPostgresStore(ctx, cfg.Database.PostgresURL, logger)
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
}

func closeStore(store storage.Store, logger *logrus.Logger) {
	if err := store.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close store")
	}
}
