package types

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

func validLimits() RiskLimits {
	return RiskLimits{
		MaxPositionMWh:     100,
		MaxDailyVolumeMWh:  500,
		MaxSingleOrderMWh:  50,
		MaxDailyLoss:       1000,
		MaxDrawdownPercent: 20,
		MaxVaR:             500,
		ConcentrationLimit: 0.5,
	}
}

func TestRiskLimitsValidate(t *testing.T) {
	limits := validLimits()
	assert.NoError(t, limits.Validate())
}

func TestRiskLimitsValidateRejectsNonPositive(t *testing.T) {
	cases := map[string]func(*RiskLimits){
		"position": func(l *RiskLimits) { l.MaxPositionMWh = 0 },
		"volume":   func(l *RiskLimits) { l.MaxDailyVolumeMWh = 0 },
		"order":    func(l *RiskLimits) { l.MaxSingleOrderMWh = 0 },
		"loss":     func(l *RiskLimits) { l.MaxDailyLoss = 0 },
		"drawdown": func(l *RiskLimits) { l.MaxDrawdownPercent = 0 },
		"var":      func(l *RiskLimits) { l.MaxVaR = 0 },
	}

	for name, mutate := range cases {
		limits := validLimits()
		mutate(&limits)
		err := limits.Validate()
		assert.Error(t, err, "case %s", name)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRiskLimits), "case %s", name)
	}
}
