package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

// RiskLimits are the operator-configured ceilings for one asset. Limits are
// replaced wholesale on update and must be set before trading is permitted.
type RiskLimits struct {
	MaxPositionMWh     float64 `yaml:"max_position_mwh" json:"max_position_mwh" validate:"required,gt=0"`
	MaxDailyVolumeMWh  float64 `yaml:"max_daily_volume_mwh" json:"max_daily_volume_mwh" validate:"required,gt=0"`
	MaxSingleOrderMWh  float64 `yaml:"max_single_order_mwh" json:"max_single_order_mwh" validate:"required,gt=0"`
	MaxDailyLoss       float64 `yaml:"max_daily_loss" json:"max_daily_loss" validate:"required,gt=0"`
	MaxDrawdownPercent float64 `yaml:"max_drawdown_percent" json:"max_drawdown_percent" validate:"required,gt=0"`
	MaxVaR             float64 `yaml:"max_var" json:"max_var" validate:"required,gt=0"`
	ConcentrationLimit float64 `yaml:"concentration_limit" json:"concentration_limit" validate:"required,gt=0"`
	// VaRHardGate makes the VaR check block order admission instead of only
	// contributing to the risk score and warnings.
	VaRHardGate bool `yaml:"var_hard_gate" json:"var_hard_gate"`
}

// Validate validates the RiskLimits struct.
func (l *RiskLimits) Validate() error {
	validate := validator.New()
	if err := validate.Struct(l); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRiskLimits, "invalid risk limits", err)
	}

	return nil
}

// RiskMetrics is the live derived risk state for one asset. Daily fields are
// reset only on an explicit date boundary event.
type RiskMetrics struct {
	AssetID         string    `yaml:"asset_id" json:"asset_id"`
	CurrentPosition float64   `yaml:"current_position" json:"current_position"`
	DailyVolume     float64   `yaml:"daily_volume" json:"daily_volume"`
	DailyPnL        float64   `yaml:"daily_pnl" json:"daily_pnl"`
	RealizedPnL     float64   `yaml:"realized_pnl" json:"realized_pnl"`
	UnrealizedPnL   float64   `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	CurrentDrawdown float64   `yaml:"current_drawdown" json:"current_drawdown"`
	MaxDrawdown     float64   `yaml:"max_drawdown" json:"max_drawdown"`
	PeakPnL         float64   `yaml:"peak_pnl" json:"peak_pnl"`
	VaR95           float64   `yaml:"var_95" json:"var_95"`
	VaR99           float64   `yaml:"var_99" json:"var_99"`
	Sharpe          float64   `yaml:"sharpe" json:"sharpe"`
	WinRate         float64   `yaml:"win_rate" json:"win_rate"`
	ProfitFactor    float64   `yaml:"profit_factor" json:"profit_factor"`
	TotalTrades     int       `yaml:"total_trades" json:"total_trades"`
	WinningTrades   int       `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades    int       `yaml:"losing_trades" json:"losing_trades"`
	LastUpdated     time.Time `yaml:"last_updated" json:"last_updated"`
}

type AlertSeverity string

const (
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
	AlertSeverityBreach   AlertSeverity = "breach"
)

// RiskAlert is a limit-proximity or breach notification. Alerts are
// append-only and immutable except for the Acknowledged flag.
type RiskAlert struct {
	ID           string        `yaml:"id" json:"id" csv:"id"`
	AssetID      string        `yaml:"asset_id" json:"asset_id" csv:"asset_id"`
	Severity     AlertSeverity `yaml:"severity" json:"severity" csv:"severity"`
	Metric       string        `yaml:"metric" json:"metric" csv:"metric"`
	CurrentValue float64       `yaml:"current_value" json:"current_value" csv:"current_value"`
	LimitValue   float64       `yaml:"limit_value" json:"limit_value" csv:"limit_value"`
	Message      string        `yaml:"message" json:"message" csv:"message"`
	Timestamp    time.Time     `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Acknowledged bool          `yaml:"acknowledged" json:"acknowledged" csv:"acknowledged"`
}

// LimitCheck is the outcome of a single pre-trade limit evaluation.
type LimitCheck struct {
	Passed       bool    `yaml:"passed" json:"passed"`
	CurrentValue float64 `yaml:"current_value" json:"current_value"`
	LimitValue   float64 `yaml:"limit_value" json:"limit_value"`
	Message      string  `yaml:"message" json:"message"`
}

// RiskAssessment is the result of the pre-trade admission gate.
// AdjustedQuantity never exceeds OriginalQuantity, and OrderAllowed is false
// whenever AdjustedQuantity is zero.
type RiskAssessment struct {
	OrderAllowed     bool       `yaml:"order_allowed" json:"order_allowed"`
	OriginalQuantity float64    `yaml:"original_quantity" json:"original_quantity"`
	AdjustedQuantity float64    `yaml:"adjusted_quantity" json:"adjusted_quantity"`
	RiskScore        float64    `yaml:"risk_score" json:"risk_score"`
	PositionCheck    LimitCheck `yaml:"position_check" json:"position_check"`
	SizeCheck        LimitCheck `yaml:"size_check" json:"size_check"`
	VolumeCheck      LimitCheck `yaml:"volume_check" json:"volume_check"`
	LossCheck        LimitCheck `yaml:"loss_check" json:"loss_check"`
	VaRCheck         LimitCheck `yaml:"var_check" json:"var_check"`
	Warnings         []string   `yaml:"warnings" json:"warnings"`
}

type RiskStatus string

const (
	RiskStatusGreen  RiskStatus = "green"
	RiskStatusYellow RiskStatus = "yellow"
	RiskStatusRed    RiskStatus = "red"
)

// RiskSummary aggregates the live risk state of one asset into a
// traffic-light status.
type RiskSummary struct {
	AssetID              string      `yaml:"asset_id" json:"asset_id"`
	Status               RiskStatus  `yaml:"status" json:"status"`
	RiskScore            float64     `yaml:"risk_score" json:"risk_score"`
	Metrics              RiskMetrics `yaml:"metrics" json:"metrics"`
	UnacknowledgedAlerts int         `yaml:"unacknowledged_alerts" json:"unacknowledged_alerts"`
}
