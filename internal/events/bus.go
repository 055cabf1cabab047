// Package events provides a typed in-process topic bus for cross-component
// notification. Dispatch is synchronous: Publish returns only after every
// subscribed handler has run, in subscription order. The trading engine
// publishes trade-executed inside its per-asset critical section, so risk
// accounting always completes before the next order for the same asset is
// admitted.
package events

import (
	"sync"
	"time"

	"github.com/voltgrid-lab/bess-trading/internal/types"
)

type Kind string

const (
	KindOrderSubmitted    Kind = "order-submitted"
	KindOrderFilled       Kind = "order-filled"
	KindOrderCancelled    Kind = "order-cancelled"
	KindTradeExecuted     Kind = "trade-executed"
	KindPositionUpdated   Kind = "position-updated"
	KindSessionStarted    Kind = "session-started"
	KindSessionStopped    Kind = "session-stopped"
	KindRiskAlert         Kind = "risk-alert"
	KindAlertAcknowledged Kind = "alert-acknowledged"
	KindLimitsUpdated     Kind = "limits-updated"
)

// Event carries the payload for one notification. Only the field matching
// the kind is populated.
type Event struct {
	Kind      Kind
	AssetID   string
	Timestamp time.Time

	Order    *types.Order
	Trade    *types.Trade
	Position *types.Position
	Alert    *types.RiskAlert
	Session  *types.TradingSession
	Limits   *types.RiskLimits
}

// Handler consumes a published event. Handlers run on the publisher's
// goroutine and must not block.
type Handler func(Event)

// Bus routes events to subscribed handlers by kind.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Kind][]Handler),
	}
}

// Subscribe registers a handler for one event kind.
func (b *Bus) Subscribe(kind Kind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[kind] = append(b.handlers[kind], handler)
}

// Publish delivers the event to every handler subscribed to its kind.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Kind]
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
