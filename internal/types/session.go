package types

import "time"

type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusPaused  SessionStatus = "paused"
	SessionStatusStopped SessionStatus = "stopped"
)

// TradingSession is a bounded period of strategy-driven trading. At most one
// non-stopped session exists per asset at a time.
type TradingSession struct {
	ID             string        `yaml:"id" json:"id" csv:"id"`
	AssetID        string        `yaml:"asset_id" json:"asset_id" csv:"asset_id"`
	Strategy       string        `yaml:"strategy" json:"strategy" csv:"strategy"`
	Status         SessionStatus `yaml:"status" json:"status" csv:"status"`
	StartedAt      time.Time     `yaml:"started_at" json:"started_at" csv:"started_at"`
	StoppedAt      time.Time     `yaml:"stopped_at" json:"stopped_at" csv:"stopped_at"`
	OrdersPlaced   int           `yaml:"orders_placed" json:"orders_placed" csv:"orders_placed"`
	TradesExecuted int           `yaml:"trades_executed" json:"trades_executed" csv:"trades_executed"`
	VolumeMWh      float64       `yaml:"volume_mwh" json:"volume_mwh" csv:"volume_mwh"`
	TotalFees      float64       `yaml:"total_fees" json:"total_fees" csv:"total_fees"`
	RealizedPnL    float64       `yaml:"realized_pnl" json:"realized_pnl" csv:"realized_pnl"`
}
