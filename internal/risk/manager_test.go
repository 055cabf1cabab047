package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/voltgrid-lab/bess-trading/internal/events"
	"github.com/voltgrid-lab/bess-trading/internal/logger"
	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

const testAssetID = "bess-001"

func testLimits() types.RiskLimits {
	return types.RiskLimits{
		MaxPositionMWh:     100,
		MaxDailyVolumeMWh:  1000,
		MaxSingleOrderMWh:  500,
		MaxDailyLoss:       100000,
		MaxDrawdownPercent: 50,
		MaxVaR:             10000,
		ConcentrationLimit: 0.5,
	}
}

type ManagerTestSuite struct {
	suite.Suite
	manager *Manager
	bus     *events.Bus
	now     time.Time
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (suite *ManagerTestSuite) SetupTest() {
	suite.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.bus = events.NewBus()
	suite.manager = NewManager(Deps{
		Bus:    suite.bus,
		Logger: logger.NewNopLogger(),
		Clock:  func() time.Time { return suite.now },
	})
}

func (suite *ManagerTestSuite) configureAsset() {
	suite.Require().NoError(suite.manager.SetRiskLimits(testAssetID, testLimits()))
}

// recordBuy moves the asset's position without touching P&L.
func (suite *ManagerTestSuite) recordBuy(qty float64) {
	suite.manager.RecordTrade(types.Trade{
		ID:       "t-position",
		AssetID:  testAssetID,
		Market:   types.MarketDayAhead,
		Side:     types.OrderSideBuy,
		Quantity: qty,
		Price:    50,
		NetValue: 0,
	})
}

func (suite *ManagerTestSuite) TestSetRiskLimitsRejectsInvalid() {
	limits := testLimits()
	limits.MaxPositionMWh = 0

	err := suite.manager.SetRiskLimits(testAssetID, limits)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidRiskLimits))
	suite.True(suite.manager.GetRiskLimits(testAssetID).IsNone())
}

func (suite *ManagerTestSuite) TestSetRiskLimitsReplacesWholesale() {
	suite.configureAsset()

	updated := testLimits()
	updated.MaxPositionMWh = 250
	suite.Require().NoError(suite.manager.SetRiskLimits(testAssetID, updated))

	got := suite.manager.GetRiskLimits(testAssetID).Unwrap()
	suite.Equal(250.0, got.MaxPositionMWh)
	suite.Equal(updated.MaxDailyLoss, got.MaxDailyLoss)
}

func (suite *ManagerTestSuite) TestAssessUnconfiguredAssetFailsOpen() {
	assessment := suite.manager.AssessOrderRisk("unmanaged-asset", types.OrderSideBuy, 500, 80)

	suite.True(assessment.OrderAllowed)
	suite.Equal(500.0, assessment.AdjustedQuantity)
	suite.NotEmpty(assessment.Warnings)
}

func (suite *ManagerTestSuite) TestAssessClampsToPositionHeadroom() {
	suite.configureAsset()
	suite.recordBuy(90)

	assessment := suite.manager.AssessOrderRisk(testAssetID, types.OrderSideBuy, 20, 80)

	suite.True(assessment.OrderAllowed)
	suite.False(assessment.PositionCheck.Passed)
	suite.Equal(20.0, assessment.OriginalQuantity)
	suite.Equal(10.0, assessment.AdjustedQuantity)
	suite.NotEmpty(assessment.Warnings)
}

func (suite *ManagerTestSuite) TestAssessClampsToSingleOrderLimit() {
	suite.configureAsset()

	limits := testLimits()
	limits.MaxSingleOrderMWh = 25
	suite.Require().NoError(suite.manager.SetRiskLimits(testAssetID, limits))

	assessment := suite.manager.AssessOrderRisk(testAssetID, types.OrderSideBuy, 40, 80)

	suite.True(assessment.OrderAllowed)
	suite.False(assessment.SizeCheck.Passed)
	suite.Equal(25.0, assessment.AdjustedQuantity)
}

func (suite *ManagerTestSuite) TestAssessNeverIncreasesQuantity() {
	suite.configureAsset()

	for _, qty := range []float64{1, 10, 99.5, 100, 500, 2000} {
		assessment := suite.manager.AssessOrderRisk(testAssetID, types.OrderSideBuy, qty, 80)
		suite.LessOrEqual(assessment.AdjustedQuantity, assessment.OriginalQuantity)
	}
}

func (suite *ManagerTestSuite) TestAssessZeroHeadroomBlocksOrder() {
	suite.configureAsset()
	suite.recordBuy(100)

	assessment := suite.manager.AssessOrderRisk(testAssetID, types.OrderSideBuy, 10, 80)

	suite.False(assessment.OrderAllowed)
	suite.Equal(0.0, assessment.AdjustedQuantity)
}

func (suite *ManagerTestSuite) TestAssessDailyVolumeIsHardGate() {
	suite.configureAsset()

	limits := testLimits()
	limits.MaxDailyVolumeMWh = 50
	suite.Require().NoError(suite.manager.SetRiskLimits(testAssetID, limits))
	suite.recordBuy(45)

	assessment := suite.manager.AssessOrderRisk(testAssetID, types.OrderSideBuy, 10, 80)

	suite.False(assessment.OrderAllowed)
	suite.False(assessment.VolumeCheck.Passed)
}

func (suite *ManagerTestSuite) TestAssessDailyLossIsHardGate() {
	suite.configureAsset()

	limits := testLimits()
	limits.MaxDailyLoss = 500
	suite.Require().NoError(suite.manager.SetRiskLimits(testAssetID, limits))

	// A 10 MWh buy at 80 commits 800 of potential loss against a 500 limit.
	assessment := suite.manager.AssessOrderRisk(testAssetID, types.OrderSideBuy, 10, 80)

	suite.False(assessment.OrderAllowed)
	suite.False(assessment.LossCheck.Passed)
}

func (suite *ManagerTestSuite) TestAssessSellIgnoresLossCheck() {
	suite.configureAsset()

	limits := testLimits()
	limits.MaxDailyLoss = 500
	suite.Require().NoError(suite.manager.SetRiskLimits(testAssetID, limits))
	suite.recordBuy(50)

	assessment := suite.manager.AssessOrderRisk(testAssetID, types.OrderSideSell, 10, 80)

	suite.True(assessment.OrderAllowed)
	suite.True(assessment.LossCheck.Passed)
}

func (suite *ManagerTestSuite) TestAssessVaRReportedButNotBlockingByDefault() {
	suite.configureAsset()

	limits := testLimits()
	limits.MaxVaR = 50
	suite.Require().NoError(suite.manager.SetRiskLimits(testAssetID, limits))
	suite.recordTenTrades()

	assessment := suite.manager.AssessOrderRisk(testAssetID, types.OrderSideBuy, 5, 80)

	suite.False(assessment.VaRCheck.Passed)
	suite.True(assessment.OrderAllowed)
}

func (suite *ManagerTestSuite) TestAssessVaRHardGateBlocks() {
	suite.configureAsset()

	limits := testLimits()
	limits.MaxVaR = 50
	limits.VaRHardGate = true
	suite.Require().NoError(suite.manager.SetRiskLimits(testAssetID, limits))
	suite.recordTenTrades()

	assessment := suite.manager.AssessOrderRisk(testAssetID, types.OrderSideBuy, 5, 80)

	suite.False(assessment.VaRCheck.Passed)
	suite.False(assessment.OrderAllowed)
}

func (suite *ManagerTestSuite) TestAssessRiskScoreStaysInUnitInterval() {
	suite.configureAsset()
	suite.recordBuy(95)

	assessment := suite.manager.AssessOrderRisk(testAssetID, types.OrderSideBuy, 400, 250)

	suite.GreaterOrEqual(assessment.RiskScore, 0.0)
	suite.LessOrEqual(assessment.RiskScore, 1.0)
}

// recordTenTrades books ten trades with net values spanning -100 to +100.
func (suite *ManagerTestSuite) recordTenTrades() {
	netValues := []float64{-100, -50, -25, -10, -5, 5, 10, 25, 50, 100}
	for _, netValue := range netValues {
		suite.manager.RecordTrade(types.Trade{
			AssetID:    testAssetID,
			Market:     types.MarketIntraday,
			Side:       types.OrderSideBuy,
			Quantity:   1,
			Price:      80,
			TotalValue: 80,
			NetValue:   netValue,
		})
	}
}

func (suite *ManagerTestSuite) TestRecordTradeUpdatesPositionAndVolume() {
	suite.configureAsset()

	suite.manager.RecordTrade(types.Trade{
		AssetID: testAssetID, Side: types.OrderSideBuy, Quantity: 30, NetValue: 0,
	})
	suite.manager.RecordTrade(types.Trade{
		AssetID: testAssetID, Side: types.OrderSideSell, Quantity: 40, NetValue: 3600,
	})

	metrics := suite.manager.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(-10.0, metrics.CurrentPosition)
	suite.Equal(70.0, metrics.DailyVolume)
	suite.Equal(3600.0, metrics.DailyPnL)
	suite.Equal(2, metrics.TotalTrades)
}

func (suite *ManagerTestSuite) TestVaRRequiresTenTrades() {
	suite.configureAsset()

	netValues := []float64{-100, -50, -25, -10, -5, 5, 10, 25, 50}
	for _, netValue := range netValues {
		suite.manager.RecordTrade(types.Trade{
			AssetID: testAssetID, Side: types.OrderSideBuy, Quantity: 1, NetValue: netValue,
		})
	}

	metrics := suite.manager.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(0.0, metrics.VaR95)
	suite.Equal(0.0, metrics.VaR99)

	suite.manager.RecordTrade(types.Trade{
		AssetID: testAssetID, Side: types.OrderSideBuy, Quantity: 1, NetValue: 100,
	})

	metrics = suite.manager.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(100.0, metrics.VaR95)
	suite.Equal(100.0, metrics.VaR99)
}

func (suite *ManagerTestSuite) TestWinRateAndProfitFactor() {
	suite.configureAsset()
	suite.recordTenTrades()

	metrics := suite.manager.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(0.5, metrics.WinRate)
	suite.Equal(1.0, metrics.ProfitFactor)
	suite.Equal(5, metrics.WinningTrades)
	suite.Equal(5, metrics.LosingTrades)
}

func (suite *ManagerTestSuite) TestProfitFactorInfiniteWithoutLosses() {
	suite.configureAsset()

	suite.manager.RecordTrade(types.Trade{
		AssetID: testAssetID, Side: types.OrderSideSell, Quantity: 10, NetValue: 500,
	})

	metrics := suite.manager.GetRiskMetrics(testAssetID).Unwrap()
	suite.True(math.IsInf(metrics.ProfitFactor, 1))
	suite.Equal(1.0, metrics.WinRate)
}

func (suite *ManagerTestSuite) TestDrawdownTracksPeak() {
	suite.configureAsset()

	suite.manager.RecordTrade(types.Trade{
		AssetID: testAssetID, Side: types.OrderSideSell, Quantity: 10, NetValue: 1000,
	})
	suite.manager.UpdateUnrealizedPnL(testAssetID, nil)

	metrics := suite.manager.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(1000.0, metrics.PeakPnL)
	suite.Equal(0.0, metrics.CurrentDrawdown)

	suite.manager.UpdateUnrealizedPnL(testAssetID, []types.Position{
		{AssetID: testAssetID, UnrealizedPnL: -400},
	})

	metrics = suite.manager.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(1000.0, metrics.PeakPnL)
	suite.Equal(400.0, metrics.CurrentDrawdown)
	suite.Equal(400.0, metrics.MaxDrawdown)

	suite.manager.UpdateUnrealizedPnL(testAssetID, []types.Position{
		{AssetID: testAssetID, UnrealizedPnL: -100},
	})

	metrics = suite.manager.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(100.0, metrics.CurrentDrawdown)
	suite.Equal(400.0, metrics.MaxDrawdown)
}

func (suite *ManagerTestSuite) TestHandleDateBoundaryResetsDailyFields() {
	suite.configureAsset()
	suite.recordTenTrades()

	suite.manager.HandleDateBoundary("2026-03-02")

	metrics := suite.manager.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(0.0, metrics.DailyVolume)
	suite.Equal(0.0, metrics.DailyPnL)
	suite.Equal(10, metrics.TotalTrades)
	suite.NotEqual(0.0, metrics.VaR95)
}

func (suite *ManagerTestSuite) TestCheckLimitsUnconfiguredAssetIsNoop() {
	suite.Nil(suite.manager.CheckLimits("unmanaged-asset"))
}

func (suite *ManagerTestSuite) TestCheckLimitsWarnsNearPositionLimit() {
	suite.configureAsset()
	suite.recordBuy(92)

	alerts := suite.manager.CheckLimits(testAssetID)
	suite.Require().Len(alerts, 1)
	suite.Equal(types.AlertSeverityWarning, alerts[0].Severity)
	suite.Equal("position", alerts[0].Metric)
}

func (suite *ManagerTestSuite) TestCheckLimitsBreachAtPositionLimit() {
	suite.configureAsset()
	suite.recordBuy(100)

	alerts := suite.manager.CheckLimits(testAssetID)
	suite.Require().Len(alerts, 1)
	suite.Equal(types.AlertSeverityBreach, alerts[0].Severity)
}

func (suite *ManagerTestSuite) TestCheckLimitsAppendsOnRepeatedChecks() {
	suite.configureAsset()
	suite.recordBuy(100)

	suite.manager.CheckLimits(testAssetID)
	suite.manager.CheckLimits(testAssetID)

	suite.Len(suite.manager.GetAlerts(testAssetID), 2)
}

func (suite *ManagerTestSuite) TestAcknowledgeAlert() {
	suite.configureAsset()
	suite.recordBuy(100)

	alerts := suite.manager.CheckLimits(testAssetID)
	suite.Require().Len(alerts, 1)

	suite.Require().NoError(suite.manager.AcknowledgeAlert(alerts[0].ID))

	stored := suite.manager.GetAlerts(testAssetID)
	suite.Require().Len(stored, 1)
	suite.True(stored[0].Acknowledged)
}

func (suite *ManagerTestSuite) TestFilterAlerts() {
	suite.configureAsset()
	suite.recordBuy(100)

	alerts := suite.manager.CheckLimits(testAssetID)
	suite.Require().Len(alerts, 1)
	suite.Require().NoError(suite.manager.AcknowledgeAlert(alerts[0].ID))

	suite.recordBuy(5)
	suite.manager.CheckLimits(testAssetID)

	suite.Len(suite.manager.GetAlerts(testAssetID), 2)
	suite.Len(suite.manager.FilterAlerts(testAssetID, AlertFilter{UnacknowledgedOnly: true}), 1)
	suite.Len(suite.manager.FilterAlerts(testAssetID, AlertFilter{Severity: types.AlertSeverityBreach}), 2)
	suite.Empty(suite.manager.FilterAlerts(testAssetID, AlertFilter{Severity: types.AlertSeverityWarning}))
}

func (suite *ManagerTestSuite) TestAcknowledgeUnknownAlert() {
	err := suite.manager.AcknowledgeAlert("no-such-alert")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeAlertNotFound))
}

func (suite *ManagerTestSuite) TestSummaryGreenByDefault() {
	suite.configureAsset()

	summary := suite.manager.GetRiskSummary(testAssetID)
	suite.Equal(types.RiskStatusGreen, summary.Status)
	suite.Zero(summary.UnacknowledgedAlerts)
}

func (suite *ManagerTestSuite) TestSummaryYellowOnWarning() {
	suite.configureAsset()
	suite.recordBuy(92)
	suite.manager.CheckLimits(testAssetID)

	summary := suite.manager.GetRiskSummary(testAssetID)
	suite.Equal(types.RiskStatusYellow, summary.Status)
	suite.Equal(1, summary.UnacknowledgedAlerts)
}

func (suite *ManagerTestSuite) TestSummaryRedOnUnacknowledgedBreach() {
	suite.configureAsset()
	suite.recordBuy(100)
	alerts := suite.manager.CheckLimits(testAssetID)
	suite.Require().Len(alerts, 1)

	summary := suite.manager.GetRiskSummary(testAssetID)
	suite.Equal(types.RiskStatusRed, summary.Status)

	// Red is driven by the alert alone, not the composite score.
	suite.Less(summary.RiskScore, 0.7)

	suite.Require().NoError(suite.manager.AcknowledgeAlert(alerts[0].ID))
	summary = suite.manager.GetRiskSummary(testAssetID)
	suite.Equal(types.RiskStatusGreen, summary.Status)
}

func (suite *ManagerTestSuite) TestSubscribeRecordsPublishedTrades() {
	suite.configureAsset()
	suite.manager.Subscribe(suite.bus)

	trade := types.Trade{
		AssetID: testAssetID, Side: types.OrderSideBuy, Quantity: 30, NetValue: -12,
	}
	suite.bus.Publish(events.Event{
		Kind:      events.KindTradeExecuted,
		AssetID:   testAssetID,
		Timestamp: suite.now,
		Trade:     &trade,
	})

	metrics := suite.manager.GetRiskMetrics(testAssetID).Unwrap()
	suite.Equal(30.0, metrics.CurrentPosition)
	suite.Equal(-12.0, metrics.DailyPnL)
}
