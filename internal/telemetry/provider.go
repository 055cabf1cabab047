// Package telemetry defines the asset telemetry port. The engine uses it
// only to bound arbitrage feasibility by the battery's available power.
package telemetry

import (
	"sync"

	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

// Provider supplies the current battery state for an asset.
type Provider interface {
	GetCurrentState(assetID string) (types.AssetState, error)
}

// StaticProvider is an in-memory provider whose states are set by the caller.
type StaticProvider struct {
	mu     sync.RWMutex
	states map[string]types.AssetState
}

// NewStaticProvider creates an empty static provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		states: make(map[string]types.AssetState),
	}
}

// SetState replaces the state for an asset.
func (p *StaticProvider) SetState(assetID string, state types.AssetState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.states[assetID] = state
}

// GetCurrentState implements Provider.
func (p *StaticProvider) GetCurrentState(assetID string) (types.AssetState, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state, ok := p.states[assetID]
	if !ok {
		return types.AssetState{}, errors.Newf(errors.ErrCodeTelemetryFailed, "no telemetry for asset %s", assetID)
	}

	return state, nil
}
