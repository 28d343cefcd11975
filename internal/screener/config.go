package screener

import "time"

// Config carries the screener knobs spec.md §6 names.
type Config struct {
	TopCoinsCount      int           // default 100
	MinVolume24h       float64       // default 5_000_000
	ScanInterval       time.Duration // default 60s
	CooldownDuration   time.Duration // default 5m
	CandleGranularity  int           // minutes, default 30
	CandleLookback     int           // candles fetched per scan, default 120
	WorkerCount        int           // default 10
	BatchSize          int           // default 10
	InterBatchDelay    time.Duration // default 200ms
	OrderBookDepth     int           // default 20

	MinScore       int     // screening validity filter, default 40
	MinConfidence  float64 // default 0.7
	MaxSpreadPct   float64 // default 0.1
	MinConfluence  float64 // default 0.5

	FallbackSymbols []string
}

// DefaultConfig returns spec.md §4.5's default screener knobs.
func DefaultConfig() Config {
	return Config{
		TopCoinsCount:     100,
		MinVolume24h:      5_000_000,
		ScanInterval:      60 * time.Second,
		CooldownDuration:  5 * time.Minute,
		CandleGranularity: 30,
		CandleLookback:    120,
		WorkerCount:       10,
		BatchSize:         10,
		InterBatchDelay:   200 * time.Millisecond,
		OrderBookDepth:    20,
		MinScore:          40,
		MinConfidence:     0.7,
		MaxSpreadPct:      0.1,
		MinConfluence:     0.5,
		FallbackSymbols:   []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT"},
	}
}
