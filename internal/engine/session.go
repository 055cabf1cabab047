package engine

import (
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/voltgrid-lab/bess-trading/internal/events"
	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

// StartSession begins a strategy-driven trading session for an asset. At
// most one non-stopped session may exist per asset.
func (e *Engine) StartSession(assetID, strategy string) (types.TradingSession, error) {
	e.mu.Lock()

	if existing, ok := e.sessions[assetID]; ok && existing.Status != types.SessionStatusStopped {
		e.mu.Unlock()

		return types.TradingSession{}, errors.Newf(errors.ErrCodeSessionAlreadyActive,
			"asset %s already has a %s session", assetID, existing.Status)
	}

	session := &types.TradingSession{
		ID:        uuid.New().String(),
		AssetID:   assetID,
		Strategy:  strategy,
		Status:    types.SessionStatusActive,
		StartedAt: e.clock(),
	}
	e.sessions[assetID] = session
	snapshot := *session
	e.mu.Unlock()

	e.logger.Info("trading session started",
		zap.String("session_id", snapshot.ID),
		zap.String("asset_id", assetID),
		zap.String("strategy", strategy),
	)

	e.bus.Publish(events.Event{
		Kind:      events.KindSessionStarted,
		AssetID:   assetID,
		Timestamp: snapshot.StartedAt,
		Session:   &snapshot,
	})

	return snapshot, nil
}

// PauseSession pauses the asset's active session.
func (e *Engine) PauseSession(assetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[assetID]
	if !ok || session.Status == types.SessionStatusStopped {
		return errors.Newf(errors.ErrCodeSessionNotFound, "no running session for asset %s", assetID)
	}

	session.Status = types.SessionStatusPaused

	return nil
}

// ResumeSession resumes a paused session.
func (e *Engine) ResumeSession(assetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[assetID]
	if !ok || session.Status != types.SessionStatusPaused {
		return errors.Newf(errors.ErrCodeSessionNotFound, "no paused session for asset %s", assetID)
	}

	session.Status = types.SessionStatusActive

	return nil
}

// StopSession stops the asset's session and returns its final counters.
func (e *Engine) StopSession(assetID string) (types.TradingSession, error) {
	e.mu.Lock()

	session, ok := e.sessions[assetID]
	if !ok || session.Status == types.SessionStatusStopped {
		e.mu.Unlock()

		return types.TradingSession{}, errors.Newf(errors.ErrCodeSessionNotFound, "no running session for asset %s", assetID)
	}

	session.Status = types.SessionStatusStopped
	session.StoppedAt = e.clock()
	snapshot := *session
	e.mu.Unlock()

	e.logger.Info("trading session stopped",
		zap.String("session_id", snapshot.ID),
		zap.String("asset_id", assetID),
		zap.Int("trades_executed", snapshot.TradesExecuted),
		zap.Float64("realized_pnl", snapshot.RealizedPnL),
	)

	e.bus.Publish(events.Event{
		Kind:      events.KindSessionStopped,
		AssetID:   assetID,
		Timestamp: snapshot.StoppedAt,
		Session:   &snapshot,
	})

	return snapshot, nil
}

// GetSession returns the asset's current session, stopped or not.
func (e *Engine) GetSession(assetID string) optional.Option[types.TradingSession] {
	e.mu.RLock()
	defer e.mu.RUnlock()

	session, ok := e.sessions[assetID]
	if !ok {
		return optional.None[types.TradingSession]()
	}

	return optional.Some(*session)
}

// recordSessionOrderLocked counts a submitted order against the active
// session. Caller holds e.mu.
func (e *Engine) recordSessionOrderLocked(assetID string) {
	session, ok := e.sessions[assetID]
	if !ok || session.Status != types.SessionStatusActive {
		return
	}

	session.OrdersPlaced++
}

// recordSessionTradeLocked folds an executed trade into the active session's
// counters. Caller holds e.mu.
func (e *Engine) recordSessionTradeLocked(trade types.Trade) {
	session, ok := e.sessions[trade.AssetID]
	if !ok || session.Status != types.SessionStatusActive {
		return
	}

	session.TradesExecuted++
	session.VolumeMWh += trade.Quantity
	session.TotalFees += trade.Fees

	if trade.Side == types.OrderSideSell {
		session.RealizedPnL += trade.NetValue
	}
}
