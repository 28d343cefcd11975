// Package fake provides a deterministic in-memory marketdata.Provider for
// tests, grounded on the teacher's internal/binance/mock_client.go idiom of
// a fully in-process stand-in that never hits the network.
package fake

import (
	"context"
	"sync"
	"time"

	"screener/internal/marketdata"
	"screener/internal/model"
)

// Provider is a deterministic, entirely in-memory marketdata.Provider.
// Candles/contracts/funding rates are seeded up front; ticker and
// order-book subscriptions replay a fixed, caller-supplied sequence.
type Provider struct {
	mu        sync.RWMutex
	contracts []marketdata.Contract
	candles   map[string][]model.Candle
	funding   map[string]float64
	tickers   map[string][]marketdata.Ticker
	books     map[string][]model.OrderBook
}

// New creates an empty fake provider; use the Seed* methods to populate it.
func New() *Provider {
	return &Provider{
		candles: make(map[string][]model.Candle),
		funding: make(map[string]float64),
		tickers: make(map[string][]marketdata.Ticker),
		books:   make(map[string][]model.OrderBook),
	}
}

// SeedContracts sets the fixed contract list ListContracts returns.
func (p *Provider) SeedContracts(contracts []marketdata.Contract) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contracts = contracts
}

// SeedCandles sets the candle series FetchCandles returns for symbol.
func (p *Provider) SeedCandles(symbol string, candles []model.Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candles[symbol] = candles
}

// SeedFundingRate sets the funding rate FetchFundingRate returns for symbol.
func (p *Provider) SeedFundingRate(symbol string, rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.funding[symbol] = rate
}

// SeedTickerSequence sets the ordered tick events SubscribeTicker replays.
func (p *Provider) SeedTickerSequence(symbol string, ticks []marketdata.Ticker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickers[symbol] = ticks
}

// SeedOrderBookSequence sets the ordered snapshots SubscribeOrderBook replays.
func (p *Provider) SeedOrderBookSequence(symbol string, books []model.OrderBook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.books[symbol] = books
}

// ListContracts returns the seeded contract list.
func (p *Provider) ListContracts(ctx context.Context) ([]marketdata.Contract, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]marketdata.Contract, len(p.contracts))
	copy(out, p.contracts)
	return out, nil
}

// FetchCandles returns the seeded candle series for symbol, optionally
// bounded by [from, to].
func (p *Provider) FetchCandles(ctx context.Context, symbol string, granularityMinutes int, from, to *time.Time) ([]model.Candle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	series := p.candles[symbol]
	if from == nil && to == nil {
		out := make([]model.Candle, len(series))
		copy(out, series)
		return out, nil
	}
	var out []model.Candle
	for _, c := range series {
		if from != nil && c.Timestamp.Before(*from) {
			continue
		}
		if to != nil && c.Timestamp.After(*to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// SubscribeTicker replays the seeded tick sequence for symbol, one per call
// to handler, then blocks until ctx is cancelled.
func (p *Provider) SubscribeTicker(ctx context.Context, symbol string, handler marketdata.TickerHandler) error {
	p.mu.RLock()
	ticks := p.tickers[symbol]
	p.mu.RUnlock()
	for _, t := range ticks {
		handler(t)
	}
	<-ctx.Done()
	return ctx.Err()
}

// SubscribeOrderBook replays the seeded snapshot sequence for symbol, one per
// call to handler, then blocks until ctx is cancelled.
func (p *Provider) SubscribeOrderBook(ctx context.Context, symbol string, depth int, handler marketdata.OrderBookHandler) error {
	p.mu.RLock()
	books := p.books[symbol]
	p.mu.RUnlock()
	for _, b := range books {
		handler(b)
	}
	<-ctx.Done()
	return ctx.Err()
}

// FetchFundingRate returns the seeded funding rate for symbol, or
// ErrFundingRateUnsupported if none was seeded.
func (p *Provider) FetchFundingRate(ctx context.Context, symbol string) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rate, ok := p.funding[symbol]
	if !ok {
		return 0, marketdata.ErrFundingRateUnsupported
	}
	return rate, nil
}

var _ marketdata.Provider = (*Provider)(nil)
