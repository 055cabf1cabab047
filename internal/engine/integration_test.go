package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/voltgrid-lab/bess-trading/internal/logger"
	"github.com/voltgrid-lab/bess-trading/internal/marketdata"
	"github.com/voltgrid-lab/bess-trading/internal/risk"
	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/internal/venue"
)

// IntegrationTestSuite wires the trading engine and the risk manager over
// the event bus and drives a full buy-then-sell day through both.
type IntegrationTestSuite struct {
	suite.Suite
	engine *Engine
	risk   *risk.Manager
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (suite *IntegrationTestSuite) SetupTest() {
	feed := marketdata.NewStaticFeed()
	feed.SetQuote(types.Quote{Market: types.MarketDayAhead, Bid: 98, Ask: 100, Timestamp: time.Now()})

	suite.engine = New(TestConfig(testAssetID), Deps{
		Venue:  &venue.DeterministicVenue{FillRatio: 1},
		Feed:   feed,
		Logger: logger.NewNopLogger(),
	})

	suite.risk = risk.NewManager(risk.Deps{
		Bus:    suite.engine.Bus(),
		Logger: logger.NewNopLogger(),
	})
	suite.risk.Subscribe(suite.engine.Bus())

	suite.Require().NoError(suite.risk.SetRiskLimits(testAssetID, types.RiskLimits{
		MaxPositionMWh:     50,
		MaxDailyVolumeMWh:  200,
		MaxSingleOrderMWh:  50,
		MaxDailyLoss:       1000,
		MaxDrawdownPercent: 50,
		MaxVaR:             500,
		ConcentrationLimit: 0.5,
	}))
}

func (suite *IntegrationTestSuite) submit(side types.OrderSide, qty, price float64) types.Order {
	order, err := suite.engine.SubmitOrder(context.Background(), types.OrderRequest{
		AssetID:    testAssetID,
		Market:     types.MarketDayAhead,
		Side:       side,
		Type:       types.OrderTypeLimit,
		Quantity:   qty,
		LimitPrice: price,
	})
	suite.Require().NoError(err)

	return order
}

func (suite *IntegrationTestSuite) TestBuySellDayFlowsThroughRisk() {
	suite.submit(types.OrderSideBuy, 30, 100)

	positions := suite.engine.GetPositions(testAssetID)
	suite.Require().Len(positions, 1)
	suite.Equal(30.0, positions[0].NetQty)
	suite.Equal(0.0, positions[0].RealizedPnL)

	// The executed trade reached the risk manager through the bus.
	metrics := suite.risk.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(30.0, metrics.CurrentPosition)
	suite.Equal(30.0, metrics.DailyVolume)
	suite.Equal(1, metrics.TotalTrades)

	// The buy's cash outflow of 3003 breaches the 1000 daily-loss limit,
	// so the bus-driven limit check raised a breach alert.
	alerts := suite.risk.FilterAlerts(testAssetID, risk.AlertFilter{Severity: types.AlertSeverityBreach})
	suite.Require().Len(alerts, 1)
	suite.Equal("daily_loss", alerts[0].Metric)
	suite.Equal(types.RiskStatusRed, suite.risk.GetRiskSummary(testAssetID).Status)

	suite.submit(types.OrderSideSell, 40, 90)

	positions = suite.engine.GetPositions(testAssetID)
	suite.Require().Len(positions, 1)
	suite.Equal(-10.0, positions[0].NetQty)
	suite.InDelta(40*90-40*90*DefaultFeeRate, positions[0].RealizedPnL, 1e-9)

	metrics = suite.risk.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(-10.0, metrics.CurrentPosition)
	suite.Equal(70.0, metrics.DailyVolume)
	suite.Equal(2, metrics.TotalTrades)

	// The sell brings the day back into profit; no new alerts fire, and
	// acknowledging the stale breach clears the summary.
	suite.Require().Len(suite.risk.GetAlerts(testAssetID), 1)
	suite.Require().NoError(suite.risk.AcknowledgeAlert(alerts[0].ID))
	suite.Equal(types.RiskStatusGreen, suite.risk.GetRiskSummary(testAssetID).Status)
}

func (suite *IntegrationTestSuite) TestRiskGateClampsBeforeSubmission() {
	suite.submit(types.OrderSideBuy, 45, 10)

	assessment := suite.risk.AssessOrderRisk(testAssetID, types.OrderSideBuy, 20, 10)
	suite.True(assessment.OrderAllowed)
	suite.False(assessment.PositionCheck.Passed)
	suite.Equal(5.0, assessment.AdjustedQuantity)
}
