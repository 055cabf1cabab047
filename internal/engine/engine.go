// Package engine implements the energy-trading order engine for battery
// storage assets. It owns orders, trades, positions, and trading sessions,
// and orchestrates submission, fill, trade creation, and position updates
// against a pluggable execution venue.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/voltgrid-lab/bess-trading/internal/events"
	"github.com/voltgrid-lab/bess-trading/internal/journal"
	"github.com/voltgrid-lab/bess-trading/internal/logger"
	"github.com/voltgrid-lab/bess-trading/internal/marketdata"
	"github.com/voltgrid-lab/bess-trading/internal/telemetry"
	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/internal/venue"
	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

// fullFillThreshold is the fill ratio at or above which an order is treated
// as fully filled.
const fullFillThreshold = 0.99

// CancelOutcome is the typed result of a cancel request.
type CancelOutcome string

const (
	// CancelOutcomeCancelled means the order was cancelled before any fill
	// reached it.
	CancelOutcomeCancelled CancelOutcome = "cancelled"
	// CancelOutcomeAlreadyTerminal means the order had already reached a
	// terminal status; cancelling is a no-op, not an error.
	CancelOutcomeAlreadyTerminal CancelOutcome = "already_terminal"
)

// ArbitrageResult describes a completed cross-market arbitrage pair.
type ArbitrageResult struct {
	BuyOrder     types.Order `yaml:"buy_order" json:"buy_order"`
	SellOrder    types.Order `yaml:"sell_order" json:"sell_order"`
	SpreadPerMWh float64     `yaml:"spread_per_mwh" json:"spread_per_mwh"`
	QuantityMWh  float64     `yaml:"quantity_mwh" json:"quantity_mwh"`
	GrossProfit  float64     `yaml:"gross_profit" json:"gross_profit"`
}

// Deps are the collaborators injected into the engine. Venue, Feed, and
// Logger are required; Telemetry, Journal, Bus, and Clock are optional.
type Deps struct {
	Venue     venue.ExecutionVenue
	Feed      marketdata.Feed
	Telemetry telemetry.Provider
	Journal   *journal.Journal
	Bus       *events.Bus
	Logger    *logger.Logger
	Clock     func() time.Time
}

// Engine is the trading engine for one process. Multiple independent
// instances can coexist; all state is owned by the instance.
type Engine struct {
	venue     venue.ExecutionVenue
	feed      marketdata.Feed
	telemetry telemetry.Provider
	journal   *journal.Journal
	bus       *events.Bus
	logger    *logger.Logger
	clock     func() time.Time

	configMu sync.RWMutex
	config   Config

	// mu guards the state maps below. Mutation of positions and session
	// counters for a given asset is additionally serialized by the
	// per-asset lock, held across the whole submit-to-fill flow.
	mu         sync.RWMutex
	orders     map[string]*types.Order
	orderIDs   []string
	trades     []types.Trade
	positions  map[string]*types.Position
	sessions   map[string]*types.TradingSession
	cancels    map[string]context.CancelFunc
	assetLocks map[string]*sync.Mutex
}

// New creates a trading engine with the given configuration and collaborators.
func New(config Config, deps Deps) *Engine {
	bus := deps.Bus
	if bus == nil {
		bus = events.NewBus()
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		venue:      deps.Venue,
		feed:       deps.Feed,
		telemetry:  deps.Telemetry,
		journal:    deps.Journal,
		bus:        bus,
		logger:     deps.Logger,
		clock:      clock,
		config:     config,
		orders:     make(map[string]*types.Order),
		orderIDs:   make([]string, 0),
		trades:     make([]types.Trade, 0),
		positions:  make(map[string]*types.Position),
		sessions:   make(map[string]*types.TradingSession),
		cancels:    make(map[string]context.CancelFunc),
		assetLocks: make(map[string]*sync.Mutex),
	}
}

// Bus returns the engine's event bus for subscribers.
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// ConfigureTrading replaces the trading constraints for one asset.
func (e *Engine) ConfigureTrading(assetID string, config AssetConfig) error {
	wrapped := Config{FeeRate: DefaultFeeRate, Assets: map[string]AssetConfig{assetID: config}}
	if err := wrapped.Validate(); err != nil {
		return err
	}

	e.configMu.Lock()
	defer e.configMu.Unlock()

	e.config.Assets[assetID] = config

	return nil
}

// FeeRate returns the configured venue fee rate.
func (e *Engine) FeeRate() float64 {
	e.configMu.RLock()
	defer e.configMu.RUnlock()

	return e.config.FeeRate
}

func (e *Engine) assetConfig(assetID string) (AssetConfig, bool) {
	e.configMu.RLock()
	defer e.configMu.RUnlock()

	config, ok := e.config.Assets[assetID]

	return config, ok
}

// assetLock returns the serialization lock for one asset, creating it on
// first use. Orders for independent assets proceed fully in parallel.
func (e *Engine) assetLock(assetID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.assetLocks[assetID]
	if !ok {
		lock = &sync.Mutex{}
		e.assetLocks[assetID] = lock
	}

	return lock
}

// SubmitOrder validates a trading intent, submits it to the execution venue,
// and on any fill creates exactly one trade and updates the asset's position
// for the current settlement period. The whole flow for one asset is
// serialized; events are emitted in order: order-submitted, order-filled,
// trade-executed, position-updated.
func (e *Engine) SubmitOrder(ctx context.Context, request types.OrderRequest) (types.Order, error) {
	if err := request.Validate(); err != nil {
		return types.Order{}, err
	}

	assetConfig, ok := e.assetConfig(request.AssetID)
	if !ok {
		return types.Order{}, errors.Newf(errors.ErrCodeAssetNotConfigured, "no trading configuration for asset %s", request.AssetID)
	}

	if request.Quantity > assetConfig.MaxOrderSizeMWh {
		return types.Order{}, errors.Newf(errors.ErrCodeOrderSizeExceeded,
			"order quantity %.2f MWh exceeds configured maximum %.2f MWh", request.Quantity, assetConfig.MaxOrderSizeMWh)
	}

	if !assetConfig.MarketEnabled(request.Market) {
		return types.Order{}, errors.Newf(errors.ErrCodeUnsupportedMarket,
			"market %s is not enabled for asset %s", request.Market, request.AssetID)
	}

	lock := e.assetLock(request.AssetID)
	lock.Lock()
	defer lock.Unlock()

	price, err := e.resolvePrice(request)
	if err != nil {
		return types.Order{}, err
	}

	now := e.clock()
	order := &types.Order{
		ID:               uuid.New().String(),
		AssetID:          request.AssetID,
		Market:           request.Market,
		Side:             request.Side,
		Type:             request.Type,
		Status:           types.OrderStatusPending,
		RequestedQty:     request.Quantity,
		Price:            price,
		LimitPrice:       request.LimitPrice,
		SettlementPeriod: SettlementPeriod(now),
		SettlementDate:   SettlementDate(request.Market, now),
		CreatedAt:        now,
	}

	venueCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.orders[order.ID] = order
	e.orderIDs = append(e.orderIDs, order.ID)
	e.cancels[order.ID] = cancel
	order.Status = types.OrderStatusSubmitted
	order.SubmittedAt = now
	e.recordSessionOrderLocked(order.AssetID)
	e.mu.Unlock()

	e.publishOrderEvent(events.KindOrderSubmitted, *order)
	e.journalOrder(*order)

	result, venueErr := e.venue.Execute(venueCtx, *order)

	e.mu.Lock()
	delete(e.cancels, order.ID)

	// CancelOrder won the race: the order is terminal and the late fill is
	// discarded.
	if order.Status == types.OrderStatusCancelled {
		snapshot := *order
		e.mu.Unlock()

		return snapshot, nil
	}

	if venueErr != nil {
		snapshot := e.finishFailedOrderLocked(order, venueErr)
		e.mu.Unlock()
		e.journalOrder(snapshot)

		return snapshot, errors.Wrap(errors.ErrCodeVenueRejected, "venue execution failed", venueErr)
	}

	trade, position, snapshot := e.applyFillLocked(order, result)
	e.mu.Unlock()

	e.journalOrder(snapshot)

	if trade != nil {
		e.publishOrderEvent(events.KindOrderFilled, snapshot)
		e.journalTrade(*trade)
		e.bus.Publish(events.Event{
			Kind:      events.KindTradeExecuted,
			AssetID:   trade.AssetID,
			Timestamp: trade.ExecutedAt,
			Trade:     trade,
		})
		e.bus.Publish(events.Event{
			Kind:      events.KindPositionUpdated,
			AssetID:   position.AssetID,
			Timestamp: position.UpdatedAt,
			Position:  position,
		})
	}

	return snapshot, nil
}

// resolvePrice uses the caller-supplied limit price when present, otherwise
// the venue's current ask for buys and bid for sells.
func (e *Engine) resolvePrice(request types.OrderRequest) (float64, error) {
	if request.LimitPrice > 0 {
		return request.LimitPrice, nil
	}

	quote, err := e.feed.GetQuote(request.Market)
	if err != nil {
		return 0, err
	}

	if request.Side == types.OrderSideBuy {
		return quote.Ask, nil
	}

	return quote.Bid, nil
}

// finishFailedOrderLocked marks an order terminal after a venue failure.
// Deadline expiry maps to EXPIRED, everything else to REJECTED.
func (e *Engine) finishFailedOrderLocked(order *types.Order, venueErr error) types.Order {
	if errors.Is(venueErr, context.DeadlineExceeded) {
		order.Status = types.OrderStatusExpired
	} else {
		order.Status = types.OrderStatusRejected
	}

	order.CompletedAt = e.clock()

	e.logger.Warn("order did not fill",
		zap.String("order_id", order.ID),
		zap.String("asset_id", order.AssetID),
		zap.String("status", string(order.Status)),
		zap.Error(venueErr),
	)

	return *order
}

// applyFillLocked applies the venue's fill to the order, creates the trade,
// and updates the settlement-period position. Caller holds e.mu and the
// asset lock.
func (e *Engine) applyFillLocked(order *types.Order, result venue.FillResult) (*types.Trade, *types.Position, types.Order) {
	ratio := result.FillRatio
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}

	filledQty, _ := decimal.NewFromFloat(order.RequestedQty).Mul(decimal.NewFromFloat(ratio)).Float64()
	order.FilledQty = filledQty
	order.CompletedAt = e.clock()

	switch {
	case ratio >= fullFillThreshold:
		order.Status = types.OrderStatusFilled
	case filledQty > 0:
		order.Status = types.OrderStatusPartial
	default:
		order.Status = types.OrderStatusRejected

		return nil, nil, *order
	}

	trade := e.buildTrade(*order)
	e.trades = append(e.trades, trade)

	position := e.updatePositionLocked(trade)
	e.recordSessionTradeLocked(trade)

	e.logger.Info("order filled",
		zap.String("order_id", order.ID),
		zap.String("asset_id", order.AssetID),
		zap.Float64("filled_qty", order.FilledQty),
		zap.Float64("price", order.Price),
		zap.String("status", string(order.Status)),
	)

	return &trade, position, *order
}

// buildTrade creates the single trade for a filled order. Fees are charged
// on total value; net value is signed by side (cash outflow for buys,
// inflow net of fees for sells).
func (e *Engine) buildTrade(order types.Order) types.Trade {
	qty := decimal.NewFromFloat(order.FilledQty)
	price := decimal.NewFromFloat(order.Price)
	total := qty.Mul(price)
	fees := total.Mul(decimal.NewFromFloat(e.FeeRate()))

	var net decimal.Decimal
	if order.Side == types.OrderSideSell {
		net = total.Sub(fees)
	} else {
		net = total.Add(fees).Neg()
	}

	totalValue, _ := total.Float64()
	feeValue, _ := fees.Float64()
	netValue, _ := net.Float64()

	return types.Trade{
		ID:             uuid.New().String(),
		OrderID:        order.ID,
		AssetID:        order.AssetID,
		Market:         order.Market,
		Side:           order.Side,
		Quantity:       order.FilledQty,
		Price:          order.Price,
		TotalValue:     totalValue,
		Fees:           feeValue,
		NetValue:       netValue,
		ExecutedAt:     order.CompletedAt,
		SettlementDate: order.SettlementDate,
	}
}

// updatePositionLocked folds a trade into the asset's position for the
// trade's settlement period. Buys recompute the volume-weighted average
// price; sells realize P&L. Caller holds e.mu.
func (e *Engine) updatePositionLocked(trade types.Trade) *types.Position {
	period := SettlementPeriod(trade.ExecutedAt)
	key := positionKey(trade.AssetID, trade.Market, period)

	position, ok := e.positions[key]
	if !ok {
		position = &types.Position{
			AssetID:          trade.AssetID,
			Market:           trade.Market,
			SettlementPeriod: period,
		}
		e.positions[key] = position
	}

	if trade.Side == types.OrderSideBuy {
		priorQty := decimal.NewFromFloat(position.LongQty)
		priorAvg := decimal.NewFromFloat(position.AveragePrice)
		newQty := decimal.NewFromFloat(trade.Quantity)
		newTotal := priorQty.Add(newQty)

		if newTotal.IsPositive() {
			weighted := priorQty.Mul(priorAvg).Add(newQty.Mul(decimal.NewFromFloat(trade.Price)))
			avg, _ := weighted.Div(newTotal).Float64()
			position.AveragePrice = avg
		}

		position.LongQty, _ = newTotal.Float64()
	} else {
		position.ShortQty += trade.Quantity
		position.RealizedPnL += trade.NetValue
	}

	position.NetQty = position.LongQty - position.ShortQty
	position.UpdatedAt = trade.ExecutedAt

	snapshot := *position

	return &snapshot
}

// CancelOrder cancels a PENDING or SUBMITTED order. Cancelling an order
// that already reached a terminal status is a no-op reported through the
// outcome, not an error.
func (e *Engine) CancelOrder(orderID string) (CancelOutcome, error) {
	e.mu.Lock()

	order, ok := e.orders[orderID]
	if !ok {
		e.mu.Unlock()

		return "", errors.Newf(errors.ErrCodeOrderNotFound, "order %s not found", orderID)
	}

	if order.Status.IsTerminal() {
		e.mu.Unlock()

		return CancelOutcomeAlreadyTerminal, nil
	}

	order.Status = types.OrderStatusCancelled
	order.CompletedAt = e.clock()
	cancel := e.cancels[orderID]
	delete(e.cancels, orderID)
	snapshot := *order
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	e.publishOrderEvent(events.KindOrderCancelled, snapshot)
	e.journalOrder(snapshot)

	return CancelOutcomeCancelled, nil
}

// ExecuteArbitrage buys on one market and sells on another when the spread
// is positive. The two legs are sequential, not atomic: a failed sell leg
// leaves the buy position in place.
func (e *Engine) ExecuteArbitrage(ctx context.Context, assetID string, buyMarket, sellMarket types.Market, qty float64) (ArbitrageResult, error) {
	if qty <= 0 {
		return ArbitrageResult{}, errors.New(errors.ErrCodeInvalidQuantity, "arbitrage quantity must be positive")
	}

	buyQuote, err := e.feed.GetQuote(buyMarket)
	if err != nil {
		return ArbitrageResult{}, err
	}

	sellQuote, err := e.feed.GetQuote(sellMarket)
	if err != nil {
		return ArbitrageResult{}, err
	}

	spread := sellQuote.Bid - buyQuote.Ask
	if spread <= 0 {
		return ArbitrageResult{}, errors.Newf(errors.ErrCodeNoOpportunity,
			"no arbitrage opportunity: %s bid %.2f minus %s ask %.2f is non-positive",
			sellMarket, sellQuote.Bid, buyMarket, buyQuote.Ask)
	}

	// Bound by the battery's available power when telemetry is wired.
	if e.telemetry != nil {
		state, stateErr := e.telemetry.GetCurrentState(assetID)
		if stateErr == nil && state.AvailablePowerMWh < qty {
			qty = state.AvailablePowerMWh
		}

		if qty <= 0 {
			return ArbitrageResult{}, errors.Newf(errors.ErrCodeNoOpportunity,
				"asset %s has no available power for arbitrage", assetID)
		}
	}

	buyOrder, err := e.SubmitOrder(ctx, types.OrderRequest{
		AssetID:  assetID,
		Market:   buyMarket,
		Side:     types.OrderSideBuy,
		Type:     types.OrderTypeMarket,
		Quantity: qty,
	})
	if err != nil {
		return ArbitrageResult{}, err
	}

	sellOrder, err := e.SubmitOrder(ctx, types.OrderRequest{
		AssetID:  assetID,
		Market:   sellMarket,
		Side:     types.OrderSideSell,
		Type:     types.OrderTypeMarket,
		Quantity: qty,
	})
	if err != nil {
		return ArbitrageResult{BuyOrder: buyOrder}, err
	}

	executedQty := buyOrder.FilledQty
	if sellOrder.FilledQty < executedQty {
		executedQty = sellOrder.FilledQty
	}

	realizedSpread := sellOrder.Price - buyOrder.Price

	return ArbitrageResult{
		BuyOrder:     buyOrder,
		SellOrder:    sellOrder,
		SpreadPerMWh: realizedSpread,
		QuantityMWh:  executedQty,
		GrossProfit:  realizedSpread * executedQty,
	}, nil
}

// GetOrder returns one order by ID.
func (e *Engine) GetOrder(orderID string) optional.Option[types.Order] {
	e.mu.RLock()
	defer e.mu.RUnlock()

	order, ok := e.orders[orderID]
	if !ok {
		return optional.None[types.Order]()
	}

	return optional.Some(*order)
}

// GetOrders returns every order for an asset in creation order.
func (e *Engine) GetOrders(assetID string) []types.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()

	orders := make([]types.Order, 0)

	for _, id := range e.orderIDs {
		order := e.orders[id]
		if order.AssetID == assetID {
			orders = append(orders, *order)
		}
	}

	return orders
}

// GetTrades returns every trade for an asset in execution order.
func (e *Engine) GetTrades(assetID string) []types.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()

	trades := make([]types.Trade, 0)

	for _, trade := range e.trades {
		if trade.AssetID == assetID {
			trades = append(trades, trade)
		}
	}

	return trades
}

// GetPositions returns the asset's positions across settlement periods,
// ordered by period then market.
func (e *Engine) GetPositions(assetID string) []types.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()

	positions := make([]types.Position, 0)

	for _, position := range e.positions {
		if position.AssetID == assetID {
			positions = append(positions, *position)
		}
	}

	sort.Slice(positions, func(i, j int) bool {
		if positions[i].SettlementPeriod != positions[j].SettlementPeriod {
			return positions[i].SettlementPeriod < positions[j].SettlementPeriod
		}

		return positions[i].Market < positions[j].Market
	})

	return positions
}

func (e *Engine) publishOrderEvent(kind events.Kind, order types.Order) {
	e.bus.Publish(events.Event{
		Kind:      kind,
		AssetID:   order.AssetID,
		Timestamp: e.clock(),
		Order:     &order,
	})
}

// journalOrder appends an order snapshot to the audit journal. Journal
// failures are logged and never block trading decisions.
func (e *Engine) journalOrder(order types.Order) {
	if e.journal == nil {
		return
	}

	if err := e.journal.AppendOrder(order); err != nil {
		e.logger.Warn("failed to journal order", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (e *Engine) journalTrade(trade types.Trade) {
	if e.journal == nil {
		return
	}

	if err := e.journal.AppendTrade(trade); err != nil {
		e.logger.Warn("failed to journal trade", zap.String("trade_id", trade.ID), zap.Error(err))
	}
}
