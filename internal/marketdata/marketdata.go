// Package marketdata declares the MarketData capability (spec.md §6): the
// abstract surface a perpetual-futures provider must implement, independent
// of any specific transport. Grounded on the teacher's
// internal/binance/futures_interface.go — a grouped, doc-commented
// interface — scoped down to market-data methods only; order placement and
// account-management methods have no spec-named operation to serve.
package marketdata

import (
	"context"
	"time"

	"screener/internal/model"
)

// Contract describes one tradeable perpetual symbol.
type Contract struct {
	Symbol      string
	IsQuanto    bool
	Turnover24h float64
	Volume24h   float64
	TickSize    float64
	LotSize     float64
	Multiplier  float64
	MaxLeverage int
}

// Ticker is one best-bid/ask/last-price update.
type Ticker struct {
	Symbol      string
	Price       float64
	BestBid     float64
	BestAsk     float64
	Volume24h   float64
	Turnover24h float64
	Timestamp   time.Time
}

// TickerHandler receives ticker updates from a subscription.
type TickerHandler func(Ticker)

// OrderBookHandler receives order-book snapshots from a subscription.
type OrderBookHandler func(model.OrderBook)

// Provider is the capability set spec.md §6 names MarketData. Any
// implementation — a real exchange client, or a deterministic fake for
// tests — is interchangeable behind this interface; the screener and its
// callers never depend on a specific transport.
type Provider interface {
	// ListContracts returns every tradeable perpetual contract.
	ListContracts(ctx context.Context) ([]Contract, error)

	// FetchCandles returns closed candles for symbol at the given
	// granularity, optionally bounded by [from, to].
	FetchCandles(ctx context.Context, symbol string, granularityMinutes int, from, to *time.Time) ([]model.Candle, error)

	// SubscribeTicker streams ticker updates for symbol until ctx is
	// cancelled.
	SubscribeTicker(ctx context.Context, symbol string, handler TickerHandler) error

	// SubscribeOrderBook streams order-book snapshots of the given depth
	// for symbol until ctx is cancelled.
	SubscribeOrderBook(ctx context.Context, symbol string, depth int, handler OrderBookHandler) error

	// FetchFundingRate returns the current funding rate for symbol.
	// Optional per spec.md §6 — an implementation that doesn't support it
	// returns ErrFundingRateUnsupported.
	FetchFundingRate(ctx context.Context, symbol string) (float64, error)
}

// ErrFundingRateUnsupported is returned by FetchFundingRate when the
// provider has no funding-rate data; callers treat it as "no data", not a
// transport failure (spec.md §7's provider-transport-error policy does not
// apply to an unsupported optional method).
var ErrFundingRateUnsupported = fundingRateUnsupported{}

type fundingRateUnsupported struct{}

func (fundingRateUnsupported) Error() string { return "funding rate not supported by provider" }
