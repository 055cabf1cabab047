// Package venue defines the execution venue port. The trading engine talks
// to a venue only through this interface; production would plug in a real
// exchange client, tests plug in the deterministic adapter.
package venue

import (
	"context"

	"github.com/voltgrid-lab/bess-trading/internal/types"
)

// FillResult is the venue's definitive answer for one order.
type FillResult struct {
	// FillRatio is the filled fraction of the requested quantity, in [0, 1].
	FillRatio float64
	// Price is the execution price per MWh.
	Price float64
}

// ExecutionVenue simulates submission and fill of an order against a market.
// Execute must honor ctx cancellation so a cancelled order never races a
// late-arriving fill, and must surface a definitive terminal result: any
// transport-level retrying stays inside the adapter.
type ExecutionVenue interface {
	Execute(ctx context.Context, order types.Order) (FillResult, error)
}
