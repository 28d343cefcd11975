// Package model holds the plain data types shared across the screener:
// candles, order books, indicator results, signals, positions, and account
// state. Types carry json tags the same way the teacher's database models do,
// even though nothing here is persisted.
package model

import "time"

// Candle is one OHLCV bar. A candle sequence must be monotonic in Timestamp;
// callers (the screener's per-symbol cache) are responsible for that
// ordering, not the indicator functions.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceLevel is one side of an order book at a given price.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook holds aggregated depth for one symbol. Bids are sorted
// descending by price, asks ascending; only depth aggregates are consumed by
// the DOM indicator.
type OrderBook struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}
