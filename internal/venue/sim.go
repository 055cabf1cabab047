package venue

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/voltgrid-lab/bess-trading/internal/logger"
	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

// SimulatedVenue models an exchange connection with latency, occasional
// transient transport faults, and mostly-full fills. Transport faults are
// retried internally with exponential backoff; the engine only ever sees a
// terminal result.
type SimulatedVenue struct {
	latency     time.Duration
	partialProb float64
	faultProb   float64
	maxRetries  uint64

	mu     sync.Mutex
	rng    *rand.Rand
	logger *logger.Logger
}

// NewSimulatedVenue creates a venue with the given fill latency and RNG seed.
func NewSimulatedVenue(latency time.Duration, seed int64, log *logger.Logger) *SimulatedVenue {
	return &SimulatedVenue{
		latency:     latency,
		partialProb: 0.1,
		faultProb:   0.05,
		maxRetries:  3,
		rng:         rand.New(rand.NewSource(seed)),
		logger:      log,
	}
}

// Execute waits out the simulated exchange latency and returns a fill.
func (v *SimulatedVenue) Execute(ctx context.Context, order types.Order) (FillResult, error) {
	if err := v.wait(ctx); err != nil {
		return FillResult{}, err
	}

	var result FillResult

	operation := func() error {
		if v.roll() < v.faultProb {
			return errors.New(errors.ErrCodeVenueTimeout, "simulated transport fault")
		}

		result = FillResult{
			FillRatio: v.fillRatio(),
			Price:     order.Price,
		}

		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), v.maxRetries),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		v.logger.Warn("venue execution failed after retries",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)

		return FillResult{}, errors.Wrap(errors.ErrCodeVenueRejected, "venue did not fill order", err)
	}

	return result, nil
}

func (v *SimulatedVenue) wait(ctx context.Context) error {
	if v.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(v.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (v *SimulatedVenue) roll() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.rng.Float64()
}

// fillRatio returns a full fill most of the time, otherwise a partial fill
// in [0.5, 0.99).
func (v *SimulatedVenue) fillRatio() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.rng.Float64() < v.partialProb {
		return 0.5 + v.rng.Float64()*0.49
	}

	return 0.99 + v.rng.Float64()*0.01
}
