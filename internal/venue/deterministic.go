package venue

import (
	"context"
	"time"

	"github.com/voltgrid-lab/bess-trading/internal/types"
)

// DeterministicVenue is a test-double venue that returns a configured fill
// without any wall-clock dependence. The zero value fills nothing; set
// FillRatio to 1 for synchronous full fills.
type DeterministicVenue struct {
	// FillRatio is returned for every order.
	FillRatio float64
	// Err, when set, is returned instead of a fill.
	Err error
	// Delay, when positive, makes Execute block until the delay elapses or
	// ctx is cancelled. Used to exercise cancellation races.
	Delay time.Duration
	// Executed records every order the venue saw, in call order.
	Executed []types.Order
}

// Execute implements ExecutionVenue.
func (v *DeterministicVenue) Execute(ctx context.Context, order types.Order) (FillResult, error) {
	if v.Delay > 0 {
		timer := time.NewTimer(v.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return FillResult{}, ctx.Err()
		case <-timer.C:
		}
	} else if ctx.Err() != nil {
		return FillResult{}, ctx.Err()
	}

	if v.Err != nil {
		return FillResult{}, v.Err
	}

	v.Executed = append(v.Executed, order)

	return FillResult{FillRatio: v.FillRatio, Price: order.Price}, nil
}
