// Package risk implements the real-time risk manager: per-asset limits,
// derived metrics, pre-trade admission control, and limit alerts. An order
// that violates risk limits must never reach the market; callers gate every
// submission through AssessOrderRisk.
package risk

import (
	"math"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/voltgrid-lab/bess-trading/internal/events"
	"github.com/voltgrid-lab/bess-trading/internal/journal"
	"github.com/voltgrid-lab/bess-trading/internal/logger"
	"github.com/voltgrid-lab/bess-trading/internal/types"
)

// Composite risk score weights. Each term is capped at its weight before
// summing, so the score stays in [0, 1].
const (
	positionWeight = 0.30
	volumeWeight   = 0.20
	lossWeight     = 0.25
	varWeight      = 0.25
)

// Warning thresholds as a fraction of each limit.
const (
	positionWarnRatio = 0.90
	lossWarnRatio     = 0.80
	drawdownWarnRatio = 0.80
	varWarnRatio      = 0.90
)

// assetState is the mutable per-asset risk state.
type assetState struct {
	metrics     types.RiskMetrics
	netValues   []float64
	returns     []float64
	grossProfit float64
	grossLoss   float64
}

// Manager owns risk limits, metrics, and alerts for all assets of one
// process. Errors are local to one asset; no failure corrupts another
// asset's state.
type Manager struct {
	logger  *logger.Logger
	journal *journal.Journal
	bus     *events.Bus
	clock   func() time.Time

	mu     sync.RWMutex
	limits map[string]types.RiskLimits
	assets map[string]*assetState
	alerts []types.RiskAlert
}

// Deps are the collaborators injected into the manager. Logger is required;
// Journal, Bus, and Clock are optional.
type Deps struct {
	Journal *journal.Journal
	Bus     *events.Bus
	Logger  *logger.Logger
	Clock   func() time.Time
}

// NewManager creates a risk manager.
func NewManager(deps Deps) *Manager {
	bus := deps.Bus
	if bus == nil {
		bus = events.NewBus()
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Manager{
		logger:  deps.Logger,
		journal: deps.Journal,
		bus:     bus,
		clock:   clock,
		limits:  make(map[string]types.RiskLimits),
		assets:  make(map[string]*assetState),
		alerts:  make([]types.RiskAlert, 0),
	}
}

// Subscribe wires the manager to a trading engine's bus: every executed
// trade is recorded and limits are re-checked. The engine publishes
// trade-executed synchronously inside its per-asset critical section, so
// risk accounting completes before the next order for that asset is
// admitted.
func (m *Manager) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.KindTradeExecuted, func(event events.Event) {
		if event.Trade == nil {
			return
		}

		m.RecordTrade(*event.Trade)
		m.CheckLimits(event.AssetID)
	})
}

// SetRiskLimits replaces the asset's limits wholesale and initializes a
// zeroed metrics record if none exists.
func (m *Manager) SetRiskLimits(assetID string, limits types.RiskLimits) error {
	if err := limits.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.limits[assetID] = limits
	m.ensureAssetLocked(assetID)
	m.mu.Unlock()

	m.logger.Info("risk limits updated",
		zap.String("asset_id", assetID),
		zap.Float64("max_position_mwh", limits.MaxPositionMWh),
		zap.Float64("max_daily_loss", limits.MaxDailyLoss),
	)

	m.bus.Publish(events.Event{
		Kind:      events.KindLimitsUpdated,
		AssetID:   assetID,
		Timestamp: m.clock(),
		Limits:    &limits,
	})

	return nil
}

// GetRiskLimits returns the asset's configured limits. Readers always see
// either the fully-old or fully-new limits, never a partial update.
func (m *Manager) GetRiskLimits(assetID string) optional.Option[types.RiskLimits] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limits, ok := m.limits[assetID]
	if !ok {
		return optional.None[types.RiskLimits]()
	}

	return optional.Some(limits)
}

func (m *Manager) ensureAssetLocked(assetID string) *assetState {
	state, ok := m.assets[assetID]
	if !ok {
		state = &assetState{
			metrics: types.RiskMetrics{AssetID: assetID},
		}
		m.assets[assetID] = state
	}

	return state
}

// AssessOrderRisk is the pure, side-effect-free pre-trade gate. Position and
// single-order limits soft-adjust the admissible quantity; daily volume and
// daily loss are hard gates. The VaR check is reported and scored but blocks
// admission only when the asset's limits set VaRHardGate.
func (m *Manager) AssessOrderRisk(assetID string, side types.OrderSide, qty, price float64) types.RiskAssessment {
	assessment := types.RiskAssessment{
		OriginalQuantity: qty,
		AdjustedQuantity: qty,
		Warnings:         make([]string, 0),
	}

	m.mu.RLock()
	limits, configured := m.limits[assetID]

	var metrics types.RiskMetrics
	if state, ok := m.assets[assetID]; ok {
		metrics = state.metrics
	}
	m.mu.RUnlock()

	// Fail-open: an unconfigured asset is not yet risk-managed.
	if !configured {
		assessment.OrderAllowed = true
		assessment.PositionCheck.Passed = true
		assessment.SizeCheck.Passed = true
		assessment.VolumeCheck.Passed = true
		assessment.LossCheck.Passed = true
		assessment.VaRCheck.Passed = true
		assessment.Warnings = append(assessment.Warnings,
			"no risk limits configured for asset "+assetID+"; order allowed without risk management")

		return assessment
	}

	signedQty := qty
	if side == types.OrderSideSell {
		signedQty = -qty
	}

	newPosition := metrics.CurrentPosition + signedQty

	assessment.PositionCheck = types.LimitCheck{
		Passed:       true,
		CurrentValue: math.Abs(newPosition),
		LimitValue:   limits.MaxPositionMWh,
	}

	if math.Abs(newPosition) > limits.MaxPositionMWh {
		headroom := limits.MaxPositionMWh - math.Abs(metrics.CurrentPosition)
		if headroom < 0 {
			headroom = 0
		}

		assessment.PositionCheck.Passed = false
		assessment.PositionCheck.Message = "requested quantity exceeds position limit; clamped to remaining headroom"
		assessment.AdjustedQuantity = headroom
		assessment.Warnings = append(assessment.Warnings, "order quantity reduced to respect position limit")
	}

	assessment.SizeCheck = types.LimitCheck{
		Passed:       qty <= limits.MaxSingleOrderMWh,
		CurrentValue: qty,
		LimitValue:   limits.MaxSingleOrderMWh,
	}

	if assessment.AdjustedQuantity > limits.MaxSingleOrderMWh {
		assessment.AdjustedQuantity = limits.MaxSingleOrderMWh
		assessment.SizeCheck.Message = "quantity clamped to single-order limit"
		assessment.Warnings = append(assessment.Warnings, "order quantity reduced to respect single-order limit")
	}

	// Daily volume is a hard gate: a violation blocks the order outright
	// instead of shrinking it.
	assessment.VolumeCheck = types.LimitCheck{
		Passed:       metrics.DailyVolume+qty <= limits.MaxDailyVolumeMWh,
		CurrentValue: metrics.DailyVolume + qty,
		LimitValue:   limits.MaxDailyVolumeMWh,
	}
	if !assessment.VolumeCheck.Passed {
		assessment.VolumeCheck.Message = "order would exceed daily volume limit"
		assessment.Warnings = append(assessment.Warnings, "daily volume limit would be exceeded")
	}

	var potentialLoss float64
	if side == types.OrderSideBuy {
		potentialLoss = assessment.AdjustedQuantity * price
	}

	assessment.LossCheck = types.LimitCheck{
		Passed:       metrics.DailyPnL-potentialLoss >= -limits.MaxDailyLoss,
		CurrentValue: potentialLoss - metrics.DailyPnL,
		LimitValue:   limits.MaxDailyLoss,
	}
	if !assessment.LossCheck.Passed {
		assessment.LossCheck.Message = "order's potential loss would exceed daily loss limit"
		assessment.Warnings = append(assessment.Warnings, "daily loss limit would be exceeded")
	}

	assessment.VaRCheck = types.LimitCheck{
		Passed:       metrics.VaR95 <= limits.MaxVaR,
		CurrentValue: metrics.VaR95,
		LimitValue:   limits.MaxVaR,
	}
	if !assessment.VaRCheck.Passed {
		assessment.VaRCheck.Message = "value at risk exceeds configured maximum"
		assessment.Warnings = append(assessment.Warnings, "VaR95 exceeds configured maximum")
	}

	lossExposure := potentialLoss - metrics.DailyPnL
	assessment.RiskScore = utilizationTerm(math.Abs(newPosition), limits.MaxPositionMWh, positionWeight) +
		utilizationTerm(metrics.DailyVolume+qty, limits.MaxDailyVolumeMWh, volumeWeight) +
		utilizationTerm(lossExposure, limits.MaxDailyLoss, lossWeight) +
		utilizationTerm(metrics.VaR95, limits.MaxVaR, varWeight)

	assessment.OrderAllowed = assessment.VolumeCheck.Passed &&
		assessment.LossCheck.Passed &&
		assessment.AdjustedQuantity > 0

	if limits.VaRHardGate && !assessment.VaRCheck.Passed {
		assessment.OrderAllowed = false
	}

	return assessment
}

// RecordTrade folds an executed trade into the asset's metrics: position,
// daily volume, P&L, win rate, profit factor, Sharpe, and VaR.
func (m *Manager) RecordTrade(trade types.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.ensureAssetLocked(trade.AssetID)
	metrics := &state.metrics

	signedQty := trade.Quantity
	if trade.Side == types.OrderSideSell {
		signedQty = -trade.Quantity
	}

	metrics.CurrentPosition += signedQty
	metrics.DailyVolume += trade.Quantity
	metrics.RealizedPnL += trade.NetValue
	metrics.DailyPnL += trade.NetValue
	metrics.TotalTrades++

	if trade.NetValue > 0 {
		metrics.WinningTrades++
		state.grossProfit += trade.NetValue
	} else if trade.NetValue < 0 {
		metrics.LosingTrades++
		state.grossLoss += -trade.NetValue
	}

	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades)
	metrics.ProfitFactor = profitFactor(state.grossProfit, state.grossLoss)

	tradeReturn := trade.NetValue
	if trade.TotalValue > 0 {
		tradeReturn = trade.NetValue / trade.TotalValue
	}

	state.returns = append(state.returns, tradeReturn)
	metrics.Sharpe = sharpeRatio(state.returns)

	state.netValues = append(state.netValues, trade.NetValue)

	if var95, ok := valueAtRisk(state.netValues, 0.05); ok {
		metrics.VaR95 = var95
	}

	if var99, ok := valueAtRisk(state.netValues, 0.01); ok {
		metrics.VaR99 = var99
	}

	metrics.LastUpdated = m.clock()
}

// UpdateUnrealizedPnL sums unrealized P&L across the asset's open positions
// and updates the peak-based drawdown.
func (m *Manager) UpdateUnrealizedPnL(assetID string, positions []types.Position) {
	var total float64
	for _, position := range positions {
		total += position.UnrealizedPnL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.ensureAssetLocked(assetID)
	metrics := &state.metrics

	metrics.UnrealizedPnL = total

	cumulative := metrics.RealizedPnL + total
	if cumulative > metrics.PeakPnL {
		metrics.PeakPnL = cumulative
	}

	metrics.CurrentDrawdown = metrics.PeakPnL - cumulative
	if metrics.CurrentDrawdown > metrics.MaxDrawdown {
		metrics.MaxDrawdown = metrics.CurrentDrawdown
	}

	metrics.LastUpdated = m.clock()
}

// GetRiskMetrics returns the asset's live metrics.
func (m *Manager) GetRiskMetrics(assetID string) optional.Option[types.RiskMetrics] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.assets[assetID]
	if !ok {
		return optional.None[types.RiskMetrics]()
	}

	return optional.Some(state.metrics)
}

// HandleDateBoundary resets the daily fields of every asset's metrics at a
// trading-day boundary. Cumulative fields are preserved.
func (m *Manager) HandleDateBoundary(newDate string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, state := range m.assets {
		state.metrics.DailyVolume = 0
		state.metrics.DailyPnL = 0
	}

	m.logger.Info("trading day boundary; daily risk fields reset", zap.String("new_date", newDate))
}
