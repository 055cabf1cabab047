package types

import "time"

// Trade is a confirmed fill resulting from an Order. NetValue is the signed
// cash flow: negative for buys (outflow plus fees), positive for sells
// (inflow net of fees).
type Trade struct {
	ID             string    `yaml:"id" json:"id" csv:"id"`
	OrderID        string    `yaml:"order_id" json:"order_id" csv:"order_id"`
	AssetID        string    `yaml:"asset_id" json:"asset_id" csv:"asset_id"`
	Market         Market    `yaml:"market" json:"market" csv:"market"`
	Side           OrderSide `yaml:"side" json:"side" csv:"side"`
	Quantity       float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	Price          float64   `yaml:"price" json:"price" csv:"price"`
	TotalValue     float64   `yaml:"total_value" json:"total_value" csv:"total_value"`
	Fees           float64   `yaml:"fees" json:"fees" csv:"fees"`
	NetValue       float64   `yaml:"net_value" json:"net_value" csv:"net_value"`
	ExecutedAt     time.Time `yaml:"executed_at" json:"executed_at" csv:"executed_at"`
	SettlementDate time.Time `yaml:"settlement_date" json:"settlement_date" csv:"settlement_date"`
}

// Position is the net exposure for one asset/market/settlement-period.
// NetQty always equals LongQty - ShortQty.
type Position struct {
	AssetID          string    `yaml:"asset_id" json:"asset_id" csv:"asset_id"`
	Market           Market    `yaml:"market" json:"market" csv:"market"`
	SettlementPeriod string    `yaml:"settlement_period" json:"settlement_period" csv:"settlement_period"`
	LongQty          float64   `yaml:"long_qty" json:"long_qty" csv:"long_qty"`
	ShortQty         float64   `yaml:"short_qty" json:"short_qty" csv:"short_qty"`
	NetQty           float64   `yaml:"net_qty" json:"net_qty" csv:"net_qty"`
	AveragePrice     float64   `yaml:"average_price" json:"average_price" csv:"average_price"`
	UnrealizedPnL    float64   `yaml:"unrealized_pnl" json:"unrealized_pnl" csv:"unrealized_pnl"`
	RealizedPnL      float64   `yaml:"realized_pnl" json:"realized_pnl" csv:"realized_pnl"`
	UpdatedAt        time.Time `yaml:"updated_at" json:"updated_at" csv:"updated_at"`
}
