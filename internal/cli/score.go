package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"homewatch/server/config"
	"homewatch/server/internal/batch"
	"homewatch/server/internal/scoring"
)

func newScoreCmd() *cobra.Command {
	var avgDOM float64

	cmd := &cobra.Command{
		Use:   "score <watchlist-id>",
		Short: "Recompute motivation scores for one watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid watchlist id %q", args[0])
			}
			var market *scoring.Market
			if cmd.Flags().Changed("avg-days-on-market") {
				market = &scoring.Market{AvgDaysOnMarket: avgDOM}
			}
			return runScore(id, market)
		},
	}

	cmd.Flags().Float64Var(&avgDOM, "avg-days-on-market", 0, "market average days on market (default: computed from the watchlist)")

	return cmd
}

func runScore(watchlistID int64, market *scoring.Market) error {
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
	summary, err := coordinator.ScoreWatchlist(context.Background(), watchlistID, market)
	if err != nil {
		return err
	}

	fmt.Printf("Scored %d of %d properties\n", summary.ScoredCount, summary.TotalProperties)
	for _, msg := range summary.Errors {
		fmt.Printf("  error: %s\n", msg)
	}
	return nil
}
