package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

type OrderSide string

type OrderType string

type OrderStatus string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

const (
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStop      OrderType = "STOP"
	OrderTypeStopLimit OrderType = "STOP_LIMIT"
)

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusPartial   OrderStatus = "PARTIAL"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusExpired   OrderStatus = "EXPIRED"
)

// IsTerminal reports whether the status is final. Orders are immutable after
// reaching a terminal status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusPartial, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return true
	case OrderStatusPending, OrderStatusSubmitted:
		return false
	default:
		return false
	}
}

// OrderRequest is a trading intent as submitted by the caller.
type OrderRequest struct {
	AssetID    string    `yaml:"asset_id" json:"asset_id" csv:"asset_id" validate:"required"`
	Market     Market    `yaml:"market" json:"market" csv:"market" validate:"required,oneof=DAY_AHEAD INTRADAY REAL_TIME BALANCING CAPACITY"`
	Side       OrderSide `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Type       OrderType `yaml:"type" json:"type" csv:"type" validate:"required,oneof=MARKET LIMIT STOP STOP_LIMIT"`
	Quantity   float64   `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	LimitPrice float64   `yaml:"limit_price" json:"limit_price" csv:"limit_price" validate:"gte=0"`
}

// Validate validates the OrderRequest struct.
func (r *OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order request", err)
	}

	return nil
}

// Order is a trading intent for one asset/market. RequestedQty and FilledQty
// are in MWh; FilledQty never exceeds RequestedQty.
type Order struct {
	ID               string      `yaml:"id" json:"id" csv:"id"`
	AssetID          string      `yaml:"asset_id" json:"asset_id" csv:"asset_id"`
	Market           Market      `yaml:"market" json:"market" csv:"market"`
	Side             OrderSide   `yaml:"side" json:"side" csv:"side"`
	Type             OrderType   `yaml:"type" json:"type" csv:"type"`
	Status           OrderStatus `yaml:"status" json:"status" csv:"status"`
	RequestedQty     float64     `yaml:"requested_qty" json:"requested_qty" csv:"requested_qty"`
	FilledQty        float64     `yaml:"filled_qty" json:"filled_qty" csv:"filled_qty"`
	Price            float64     `yaml:"price" json:"price" csv:"price"`
	LimitPrice       float64     `yaml:"limit_price" json:"limit_price" csv:"limit_price"`
	SettlementPeriod string      `yaml:"settlement_period" json:"settlement_period" csv:"settlement_period"`
	SettlementDate   time.Time   `yaml:"settlement_date" json:"settlement_date" csv:"settlement_date"`
	CreatedAt        time.Time   `yaml:"created_at" json:"created_at" csv:"created_at"`
	SubmittedAt      time.Time   `yaml:"submitted_at" json:"submitted_at" csv:"submitted_at"`
	CompletedAt      time.Time   `yaml:"completed_at" json:"completed_at" csv:"completed_at"`
}
