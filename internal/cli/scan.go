package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"homewatch/server/config"
	"homewatch/server/internal/batch"
	"homewatch/server/internal/queue"
	"homewatch/server/internal/scheduler"
	"homewatch/server/internal/scraper"
)

func newScanCmd() *cobra.Command {
	var offMarket bool

	cmd := &cobra.Command{
		Use:   "scan <watchlist-id>",
		Short: "Scan one watchlist now",
		Long:  "Fetches current listings for one watchlist, reconciles them into the store, and rescores the watchlist.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid watchlist id %q", args[0])
			}
			return runScan(id, offMarket)
		},
	}

	cmd.Flags().BoolVar(&offMarket, "off-market", false, "run an off-market scan instead of a for-sale scan")

	return cmd
}

func runScan(watchlistID int64, offMarket bool) error {
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

	coordinator := batch.NewCoordinator(store, logger)
	source := scraper.NewHTTPSource(cfg.Scraper.BaseURL, time.Duration(cfg.Scraper.TimeoutSeconds)*time.Second, logger)
	runner := scheduler.NewRunner(store, source, coordinator, logger)

	kind := queue.ScanForSale
	if offMarket {
		kind = queue.ScanOffMarket
	}
	runner.Run(queue.NewScanJob(watchlistID, kind))
	return nil
}
