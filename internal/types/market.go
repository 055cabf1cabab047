package types

import "time"

// Market identifies a wholesale energy market venue.
type Market string

const (
	MarketDayAhead  Market = "DAY_AHEAD"
	MarketIntraday  Market = "INTRADAY"
	MarketRealTime  Market = "REAL_TIME"
	MarketBalancing Market = "BALANCING"
	MarketCapacity  Market = "CAPACITY"
)

// AllMarkets lists every supported market venue.
var AllMarkets = []Market{
	MarketDayAhead,
	MarketIntraday,
	MarketRealTime,
	MarketBalancing,
	MarketCapacity,
}

// Quote is a bid/ask snapshot for one market. Staleness is tolerated;
// the engine never enforces a freshness SLA on quotes.
type Quote struct {
	Market    Market    `yaml:"market" json:"market" csv:"market"`
	Bid       float64   `yaml:"bid" json:"bid" csv:"bid"`
	Ask       float64   `yaml:"ask" json:"ask" csv:"ask"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
}

// AssetState is the battery state snapshot consumed from the telemetry provider.
type AssetState struct {
	AvailablePowerMWh float64 `yaml:"available_power_mwh" json:"available_power_mwh" csv:"available_power_mwh"`
	SoCPercent        float64 `yaml:"soc_percent" json:"soc_percent" csv:"soc_percent"`
}
