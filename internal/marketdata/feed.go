// Package marketdata defines the market data feed port consumed by the
// trading engine. Quotes may be stale; no freshness SLA is enforced.
package marketdata

import (
	"sync"

	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

// Feed supplies the current bid/ask for a market.
type Feed interface {
	GetQuote(market types.Market) (types.Quote, error)
}

// StaticFeed is an in-memory feed whose quotes are set by the caller.
// It backs tests and the CLI simulator.
type StaticFeed struct {
	mu     sync.RWMutex
	quotes map[types.Market]types.Quote
}

// NewStaticFeed creates an empty static feed.
func NewStaticFeed() *StaticFeed {
	return &StaticFeed{
		quotes: make(map[types.Market]types.Quote),
	}
}

// SetQuote replaces the quote for the quote's market.
func (f *StaticFeed) SetQuote(quote types.Quote) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.quotes[quote.Market] = quote
}

// GetQuote implements Feed.
func (f *StaticFeed) GetQuote(market types.Market) (types.Quote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	quote, ok := f.quotes[market]
	if !ok {
		return types.Quote{}, errors.Newf(errors.ErrCodeQuoteUnavailable, "no quote for market %s", market)
	}

	return quote, nil
}
