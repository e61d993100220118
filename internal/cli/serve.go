package cli

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"homewatch/server/config"
	"homewatch/server/internal/api"
	"homewatch/server/internal/batch"
	"homewatch/server/internal/models"
	"homewatch/server/internal/queue"
	"homewatch/server/internal/scheduler"
	"homewatch/server/internal/scraper"
	"homewatch/server/internal/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and scan scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	if cfg.WatchlistSeedPath != "" {
		if err := seedWatchlists(context.Background(), store, cfg.WatchlistSeedPath, logger); err != nil {
			logger.WithError(err).Error("Failed to seed watchlists")
		}
	}

	coordinator := batch.NewCoordinator(store, logger)
	source := scraper.NewHTTPSource(cfg.Scraper.BaseURL, time.Duration(cfg.Scraper.TimeoutSeconds)*time.Second, logger)
	runner := scheduler.NewRunner(store, source, coordinator, logger)

	scanQueue := queue.NewScanQueue(cfg.Scheduler.QueueSize, logger)
	scanQueue.Start(runner.Run)
	defer scanQueue.Close()

	sched := scheduler.New(store, scanQueue, cfg.Scheduler.StatusCheckSpec, cfg.Scheduler.OffMarketScanSpec, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	handler := api.NewHandler(store, coordinator, scanQueue, logger)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	api.SetupRoutes(router, handler)

	logger.WithField("port", cfg.HTTP.Port).Info("Starting server")
	return router.Run(":" + cfg.HTTP.Port)
}

// seedWatchlists creates watchlists from the seed file, skipping names that
// already exist.
func seedWatchlists(ctx context.Context, store storage.Store, path string, logger *logrus.Logger) error {
	seeds, err := config.LoadWatchlistSeeds(path)
	if err != nil {
		return err
	}

	existing, err := store.ListWatchlists(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]bool, len(existing))
	for _, w := range existing {
		byName[w.Name] = true
	}

	for _, seed := range seeds {
		if byName[seed.Name] {
			continue
		}
		w := &models.Watchlist{
			Name:           seed.Name,
			Location:       seed.Location,
			PriceMin:       seed.PriceMin,
			PriceMax:       seed.PriceMax,
			BedsMin:        seed.BedsMin,
			BedsMax:        seed.BedsMax,
			IsActive:       true,
			TrackOffMarket: seed.TrackOffMarket,
		}
		if err := store.CreateWatchlist(ctx, w); err != nil {
			return err
		}
		logger.WithField("name", w.Name).Info("Seeded watchlist")
	}
	return nil
}
