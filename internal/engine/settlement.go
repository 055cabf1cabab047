package engine

import (
	"fmt"
	"time"

	"github.com/voltgrid-lab/bess-trading/internal/types"
)

// SettlementPeriod returns the hour-bucket key a trade's delivery obligation
// is assigned to, e.g. "2026-03-01-14".
func SettlementPeriod(t time.Time) string {
	return fmt.Sprintf("%s-%02d", t.UTC().Format("2006-01-02"), t.UTC().Hour())
}

// SettlementDate returns the delivery date for an order submitted at t.
// Day-ahead settles the next day, intraday and real-time settle same day,
// and all other markets settle thirty days out. The thirty-day rule is a
// modeling simplification for balancing and capacity products.
func SettlementDate(market types.Market, t time.Time) time.Time {
	day := time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)

	switch market {
	case types.MarketDayAhead:
		return day.AddDate(0, 0, 1)
	case types.MarketIntraday, types.MarketRealTime:
		return day
	case types.MarketBalancing, types.MarketCapacity:
		return day.AddDate(0, 0, 30)
	default:
		return day.AddDate(0, 0, 30)
	}
}

// positionKey identifies one asset/market/settlement-period exposure.
func positionKey(assetID string, market types.Market, period string) string {
	return assetID + "|" + string(market) + "|" + period
}
