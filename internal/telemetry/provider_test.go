package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

func TestStaticProvider(t *testing.T) {
	provider := NewStaticProvider()
	provider.SetState("bess-001", types.AssetState{AvailablePowerMWh: 25, SoCPercent: 60})

	state, err := provider.GetCurrentState("bess-001")
	require.NoError(t, err)
	assert.Equal(t, 25.0, state.AvailablePowerMWh)

	_, err = provider.GetCurrentState("bess-002")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTelemetryFailed))
}
