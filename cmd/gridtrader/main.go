package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/voltgrid-lab/bess-trading/internal/engine"
	"github.com/voltgrid-lab/bess-trading/internal/journal"
	"github.com/voltgrid-lab/bess-trading/internal/logger"
	"github.com/voltgrid-lab/bess-trading/internal/marketdata"
	"github.com/voltgrid-lab/bess-trading/internal/risk"
	"github.com/voltgrid-lab/bess-trading/internal/telemetry"
	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/internal/venue"
	"github.com/voltgrid-lab/bess-trading/internal/version"
)

// simulateAction runs a short trading session against the simulated venue:
// configure an asset, set risk limits, submit a batch of orders across the
// day-ahead and intraday markets, attempt one arbitrage pair, and print the
// trading and risk summaries.
func simulateAction(ctx context.Context, cmd *cli.Command) error {
	assetID := cmd.String("asset")
	orderCount := cmd.Int("orders")
	seed := cmd.Int("seed")
	journalPath := cmd.String("journal")
	configPath := cmd.String("config")

	var (
		appLogger *logger.Logger
		err       error
	)

	if cmd.Bool("debug") {
		appLogger, err = logger.NewDebugLogger()
	} else {
		appLogger, err = logger.NewLogger()
	}
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	config := engine.TestConfig(assetID)
	if configPath != "" {
		config, err = engine.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	var auditJournal *journal.Journal
	if journalPath != "" {
		auditJournal, err = journal.Open(journalPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer auditJournal.Close()
	}

	rng := rand.New(rand.NewSource(int64(seed)))
	now := time.Now().UTC()

	feed := marketdata.NewStaticFeed()
	feed.SetQuote(types.Quote{Market: types.MarketDayAhead, Bid: 92, Ask: 95, Timestamp: now})
	feed.SetQuote(types.Quote{Market: types.MarketIntraday, Bid: 104, Ask: 107, Timestamp: now})
	feed.SetQuote(types.Quote{Market: types.MarketRealTime, Bid: 99, Ask: 101, Timestamp: now})

	telemetryProvider := telemetry.NewStaticProvider()
	telemetryProvider.SetState(assetID, types.AssetState{AvailablePowerMWh: 40, SoCPercent: 65})

	tradingEngine := engine.New(config, engine.Deps{
		Venue:     venue.NewSimulatedVenue(20*time.Millisecond, int64(seed), appLogger),
		Feed:      feed,
		Telemetry: telemetryProvider,
		Journal:   auditJournal,
		Logger:    appLogger,
	})

	riskManager := risk.NewManager(risk.Deps{
		Journal: auditJournal,
		Bus:     tradingEngine.Bus(),
		Logger:  appLogger,
	})
	riskManager.Subscribe(tradingEngine.Bus())

	if err := riskManager.SetRiskLimits(assetID, types.RiskLimits{
		MaxPositionMWh:     120,
		MaxDailyVolumeMWh:  2000,
		MaxSingleOrderMWh:  50,
		MaxDailyLoss:       25000,
		MaxDrawdownPercent: 40,
		MaxVaR:             8000,
		ConcentrationLimit: 0.5,
	}); err != nil {
		return fmt.Errorf("failed to set risk limits: %w", err)
	}

	session, err := tradingEngine.StartSession(assetID, "simulated-spread")
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	appLogger.Info("simulation started",
		zap.String("session_id", session.ID),
		zap.String("asset_id", assetID),
		zap.Int("orders", int(orderCount)),
	)

	markets := []types.Market{types.MarketDayAhead, types.MarketIntraday, types.MarketRealTime}

	for i := 0; i < int(orderCount); i++ {
		market := markets[rng.Intn(len(markets))]

		side := types.OrderSideBuy
		if rng.Float64() < 0.5 {
			side = types.OrderSideSell
		}

		qty := 5 + rng.Float64()*20

		assessment := riskManager.AssessOrderRisk(assetID, side, qty, 100)
		if !assessment.OrderAllowed || assessment.AdjustedQuantity <= 0 {
			appLogger.Warn("order blocked by risk gate",
				zap.Float64("quantity", qty),
				zap.Strings("warnings", assessment.Warnings),
			)

			continue
		}

		if _, err := tradingEngine.SubmitOrder(ctx, types.OrderRequest{
			AssetID:  assetID,
			Market:   market,
			Side:     side,
			Type:     types.OrderTypeMarket,
			Quantity: assessment.AdjustedQuantity,
		}); err != nil {
			appLogger.Warn("order not filled", zap.Error(err))
		}

		riskManager.UpdateUnrealizedPnL(assetID, tradingEngine.GetPositions(assetID))
	}

	// The day-ahead ask sits below the intraday bid, so one arbitrage pair
	// should go through when the battery has power available.
	if result, err := tradingEngine.ExecuteArbitrage(ctx, assetID, types.MarketDayAhead, types.MarketIntraday, 15); err != nil {
		appLogger.Warn("arbitrage attempt failed", zap.Error(err))
	} else {
		appLogger.Info("arbitrage executed",
			zap.Float64("quantity_mwh", result.QuantityMWh),
			zap.Float64("spread_per_mwh", result.SpreadPerMWh),
			zap.Float64("gross_profit", result.GrossProfit),
		)
	}

	stopped, err := tradingEngine.StopSession(assetID)
	if err != nil {
		return fmt.Errorf("failed to stop session: %w", err)
	}

	printSummaries(tradingEngine, riskManager, assetID, stopped)

	return nil
}

func printSummaries(tradingEngine *engine.Engine, riskManager *risk.Manager, assetID string, session types.TradingSession) {
	summary := tradingEngine.GetTradingSummary(assetID)
	riskSummary := riskManager.GetRiskSummary(assetID)

	fmt.Printf("\nSession %s (%s)\n", session.ID, session.Strategy)
	fmt.Printf("  orders placed:    %d (filled %d, rejected %d)\n", summary.TotalOrders, summary.FilledOrders, summary.RejectedOrders)
	fmt.Printf("  trades executed:  %d\n", summary.TotalTrades)
	fmt.Printf("  volume:           %.2f MWh\n", summary.TotalVolumeMWh)
	fmt.Printf("  fees paid:        %.2f\n", summary.TotalFees)
	fmt.Printf("  realized P&L:     %.2f\n", summary.RealizedPnL)
	fmt.Printf("  risk status:      %s (score %.2f, %d open alerts)\n",
		riskSummary.Status, riskSummary.RiskScore, riskSummary.UnacknowledgedAlerts)

	for market, volume := range summary.VolumeByMarket {
		fmt.Printf("  %-12s      %.2f MWh\n", market, volume)
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "gridtrader",
		Usage:   "Run a simulated battery storage trading session",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "asset",
				Aliases: []string{"a"},
				Usage:   "Battery asset identifier",
				Value:   "bess-001",
			},
			&cli.IntFlag{
				Name:    "orders",
				Aliases: []string{"n"},
				Usage:   "Number of orders to submit",
				Value:   25,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "RNG seed for the simulated venue",
				Value: 42,
			},
			&cli.StringFlag{
				Name:    "journal",
				Aliases: []string{"j"},
				Usage:   "Path to the DuckDB audit journal (omit to disable journaling)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a trading config YAML file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: simulateAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
