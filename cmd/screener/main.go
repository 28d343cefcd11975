// Command screener runs the perpetual-futures opportunity screener and
// paper-trading simulator: it wires config, logging, the event bus, the
// candle cache, a market-data provider, the risk manager, the paper
// trader, the screener loop, and the operator API server, then blocks
// until SIGINT/SIGTERM for a graceful shutdown — grounded on the
// teacher's root main.go composition-root wiring order.
package main

import (
	"context"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"screener/config"
	"screener/internal/api"
	"screener/internal/cache"
	"screener/internal/events"
	"screener/internal/indicators"
	"screener/internal/logging"
	"screener/internal/marketdata"
	fakemd "screener/internal/marketdata/fake"
	"screener/internal/model"
	"screener/internal/paper"
	"screener/internal/risk"
	"screener/internal/screener"
	sigagg "screener/internal/signal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.SetDefault(logging.New(&logging.Config{
		Level:       cfg.LoggingConfig.Level,
		Output:      cfg.LoggingConfig.Output,
		Component:   "screener",
		IncludeFile: cfg.LoggingConfig.IncludeFile,
		JSONFormat:  cfg.LoggingConfig.JSONFormat,
	}))
	logging.Info("configuration loaded")

	bus := events.New()

	cacheSvc := cache.New(cache.Config{
		Enabled:  cfg.RedisConfig.Enabled,
		Address:  cfg.RedisConfig.Address,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
		PoolSize: cfg.RedisConfig.PoolSize,
	})

	provider := fakemd.New()

	now := time.Now()
	riskCfg := risk.Config{
		MaxDailyDrawdown:        orDefaultF(cfg.RiskConfig.MaxDailyDrawdown, 0.03),
		MaxOpenPositions:        orDefaultI(cfg.RiskConfig.MaxOpenPositions, 5),
		MinScore:                orDefaultI(cfg.RiskConfig.MinScore, 75),
		MinConfluenceCount:      orDefaultI(cfg.RiskConfig.MinConfluenceCount, 4),
		MinConfidence:           orDefaultF(cfg.RiskConfig.MinConfidence, 0.85),
		CircuitBreakerThreshold: orDefaultI(cfg.RiskConfig.CircuitBreakerThreshold, 3),
		DefaultPositionSize:     orDefaultF(cfg.RiskConfig.DefaultPositionSize, 0.05),
		MaxPositionSize:         orDefaultF(cfg.RiskConfig.MaxPositionSize, 0.20),
		DefaultLeverage:         orDefaultI(cfg.RiskConfig.DefaultLeverage, 5),
		MaxLeverage:             orDefaultI(cfg.RiskConfig.MaxLeverage, 20),
		TakerFee:                orDefaultF(cfg.RiskConfig.TakerFee, 0.0006),
		SLROI:                   orDefaultF(cfg.RiskConfig.SLROI, 0.06),
		TPROI:                   orDefaultF(cfg.RiskConfig.TPROI, 0.15),
		MaintenanceMarginRate:   orDefaultF(cfg.RiskConfig.MaintenanceMarginRate, 0.005),
		MinLiquidationBuffer:    orDefaultF(cfg.RiskConfig.MinLiquidationBuffer, 0.05),
	}

	paperCfg := paper.Config{
		TakerFee:       orDefaultF(cfg.PaperConfig.TakerFee, 0.0006),
		MakerFee:       orDefaultF(cfg.PaperConfig.MakerFee, 0.0002),
		Slippage:       orDefaultF(cfg.PaperConfig.Slippage, 0.0005),
		InitialBalance: orDefaultF(cfg.PaperConfig.InitialBalance, 10000),
	}

	rm := risk.NewManager(riskCfg, paperCfg.InitialBalance, now)
	trader := paper.New(paperCfg, rm, nil, now)

	screenerCfg := screener.DefaultConfig()
	if cfg.ScreenerConfig.TopCoinsCount > 0 {
		screenerCfg.TopCoinsCount = cfg.ScreenerConfig.TopCoinsCount
	}
	if cfg.ScreenerConfig.MinVolume24h > 0 {
		screenerCfg.MinVolume24h = cfg.ScreenerConfig.MinVolume24h
	}
	if cfg.ScreenerConfig.ScanIntervalSecs > 0 {
		screenerCfg.ScanInterval = time.Duration(cfg.ScreenerConfig.ScanIntervalSecs) * time.Second
	}
	if cfg.ScreenerConfig.CooldownMinutes > 0 {
		screenerCfg.CooldownDuration = time.Duration(cfg.ScreenerConfig.CooldownMinutes) * time.Minute
	}
	if cfg.ScreenerConfig.CandleGranularity > 0 {
		screenerCfg.CandleGranularity = cfg.ScreenerConfig.CandleGranularity
	}
	if cfg.ScreenerConfig.CandleLookback > 0 {
		screenerCfg.CandleLookback = cfg.ScreenerConfig.CandleLookback
	}
	if cfg.ScreenerConfig.WorkerCount > 0 {
		screenerCfg.WorkerCount = cfg.ScreenerConfig.WorkerCount
	}
	if cfg.ScreenerConfig.BatchSize > 0 {
		screenerCfg.BatchSize = cfg.ScreenerConfig.BatchSize
	}
	if cfg.ScreenerConfig.OrderBookDepth > 0 {
		screenerCfg.OrderBookDepth = cfg.ScreenerConfig.OrderBookDepth
	}
	if cfg.ScreenerConfig.MinScore > 0 {
		screenerCfg.MinScore = cfg.ScreenerConfig.MinScore
	}
	if cfg.ScreenerConfig.MinConfidence > 0 {
		screenerCfg.MinConfidence = cfg.ScreenerConfig.MinConfidence
	}
	if cfg.ScreenerConfig.MaxSpreadPct > 0 {
		screenerCfg.MaxSpreadPct = cfg.ScreenerConfig.MaxSpreadPct
	}
	if cfg.ScreenerConfig.MinConfluence > 0 {
		screenerCfg.MinConfluence = cfg.ScreenerConfig.MinConfluence
	}
	if len(cfg.ScreenerConfig.FallbackSymbols) > 0 {
		screenerCfg.FallbackSymbols = cfg.ScreenerConfig.FallbackSymbols
	}

	seedDemoMarket(provider, screenerCfg.FallbackSymbols)

	sc := screener.New(provider, bus, cacheSvc, indicators.Defaults(), sigagg.DefaultConfig(), screenerCfg)

	apiCfg := api.Config{
		Host:           orDefaultS(cfg.ServerConfig.Host, "0.0.0.0"),
		Port:           orDefaultI(cfg.ServerConfig.Port, 8080),
		ProductionMode: cfg.ServerConfig.ProductionMode,
	}
	server := api.New(apiCfg, bus, provider, sc, trader, rm)

	ctx, cancel := context.WithCancel(context.Background())
	sc.Init(ctx)
	go sc.Run(ctx)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("operator API server stopped")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logging.Info("shutdown signal received, draining")
	sc.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("operator API server shutdown error")
	}
}

// seedDemoMarket gives the in-memory fake provider a plausible contract
// list and a synthetic trending candle series per symbol, so the screener
// has something to rank on the very first scan with no external network
// dependency.
func seedDemoMarket(provider *fakemd.Provider, symbols []string) {
	now := time.Now()
	contracts := make([]marketdata.Contract, 0, len(symbols))
	for i, sym := range symbols {
		drift := 0.003 * math.Pow(-1, float64(i))
		provider.SeedCandles(sym, syntheticCandles(120, 100+float64(i)*10, drift, now))
		provider.SeedFundingRate(sym, 0.0001)
		contracts = append(contracts, marketdata.Contract{
			Symbol:      sym,
			Turnover24h: 50_000_000 + float64(i)*1_000_000,
			Volume24h:   500_000,
			TickSize:    0.01,
			LotSize:     0.001,
			Multiplier:  1,
			MaxLeverage: 20,
		})
	}
	provider.SeedContracts(contracts)
}

func syntheticCandles(n int, start, drift float64, now time.Time) []model.Candle {
	candles := make([]model.Candle, 0, n)
	price := start
	base := now.Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		price *= 1 + drift
		candles = append(candles, model.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      price * 0.999,
			High:      price * 1.002,
			Low:       price * 0.997,
			Close:     price,
			Volume:    1_000 + float64(i)*5,
		})
	}
	return candles
}

func orDefaultF(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func orDefaultI(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func orDefaultS(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
