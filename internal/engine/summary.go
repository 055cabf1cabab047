package engine

import "github.com/voltgrid-lab/bess-trading/internal/types"

// TradingSummary aggregates an asset's trading activity.
type TradingSummary struct {
	AssetID         string                   `yaml:"asset_id" json:"asset_id"`
	TotalOrders     int                      `yaml:"total_orders" json:"total_orders"`
	FilledOrders    int                      `yaml:"filled_orders" json:"filled_orders"`
	CancelledOrders int                      `yaml:"cancelled_orders" json:"cancelled_orders"`
	RejectedOrders  int                      `yaml:"rejected_orders" json:"rejected_orders"`
	TotalTrades     int                      `yaml:"total_trades" json:"total_trades"`
	TotalVolumeMWh  float64                  `yaml:"total_volume_mwh" json:"total_volume_mwh"`
	TotalFees       float64                  `yaml:"total_fees" json:"total_fees"`
	RealizedPnL     float64                  `yaml:"realized_pnl" json:"realized_pnl"`
	UnrealizedPnL   float64                  `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	VolumeByMarket  map[types.Market]float64 `yaml:"volume_by_market" json:"volume_by_market"`
}

// GetTradingSummary aggregates orders, trades, and positions for one asset.
func (e *Engine) GetTradingSummary(assetID string) TradingSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	summary := TradingSummary{
		AssetID:        assetID,
		VolumeByMarket: make(map[types.Market]float64),
	}

	for _, id := range e.orderIDs {
		order := e.orders[id]
		if order.AssetID != assetID {
			continue
		}

		summary.TotalOrders++

		switch order.Status {
		case types.OrderStatusFilled, types.OrderStatusPartial:
			summary.FilledOrders++
		case types.OrderStatusCancelled:
			summary.CancelledOrders++
		case types.OrderStatusRejected, types.OrderStatusExpired:
			summary.RejectedOrders++
		case types.OrderStatusPending, types.OrderStatusSubmitted:
		}
	}

	for _, trade := range e.trades {
		if trade.AssetID != assetID {
			continue
		}

		summary.TotalTrades++
		summary.TotalVolumeMWh += trade.Quantity
		summary.TotalFees += trade.Fees
		summary.VolumeByMarket[trade.Market] += trade.Quantity
	}

	for _, position := range e.positions {
		if position.AssetID != assetID {
			continue
		}

		summary.RealizedPnL += position.RealizedPnL
		summary.UnrealizedPnL += position.UnrealizedPnL
	}

	return summary
}
