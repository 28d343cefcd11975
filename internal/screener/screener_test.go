package screener

import (
	"context"
	"testing"
	"time"

	"screener/internal/cache"
	"screener/internal/events"
	"screener/internal/indicators"
	"screener/internal/marketdata"
	fakemd "screener/internal/marketdata/fake"
	"screener/internal/model"
	"screener/internal/signal"
)

func buildTrendingCandles(n int, start float64, drift float64) []model.Candle {
	candles := make([]model.Candle, 0, n)
	price := start
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		price *= 1 + drift
		candles = append(candles, model.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      price * 0.999,
			High:      price * 1.001,
			Low:       price * 0.998,
			Close:     price,
			Volume:    1000,
		})
	}
	return candles
}

func TestInit_FallsBackToHardCodedSymbolsOnFetchFailure(t *testing.T) {
	provider := fakemd.New() // no contracts seeded -> ListContracts returns empty
	bus := events.New()
	cacheSvc := cache.New(cache.Config{Enabled: false})
	sc := New(provider, bus, cacheSvc, indicators.Defaults(), signal.DefaultConfig(), DefaultConfig())

	sc.Init(context.Background())
	if len(sc.symbols()) == 0 {
		t.Fatalf("expected fallback symbols to seed records")
	}
}

func TestInit_FiltersLowVolumeAndQuanto(t *testing.T) {
	provider := fakemd.New()
	provider.SeedContracts([]marketdata.Contract{
		{Symbol: "BTCUSDT", Turnover24h: 200_000_000},
		{Symbol: "LOWVOL", Turnover24h: 1},
		{Symbol: "QUANTO", Turnover24h: 200_000_000, IsQuanto: true},
	})
	bus := events.New()
	cacheSvc := cache.New(cache.Config{Enabled: false})
	sc := New(provider, bus, cacheSvc, indicators.Defaults(), signal.DefaultConfig(), DefaultConfig())

	sc.Init(context.Background())
	symbols := sc.symbols()
	if len(symbols) != 1 || symbols[0] != "BTCUSDT" {
		t.Fatalf("expected only BTCUSDT to survive filtering, got %v", symbols)
	}
}

func TestScanNow_PublishesOpportunityForStrongTrend(t *testing.T) {
	provider := fakemd.New()
	provider.SeedCandles("BTCUSDT", buildTrendingCandles(60, 100, 0.02))
	bus := events.New()

	received := make(chan events.Event, 4)
	bus.Subscribe(events.Opportunities, func(e events.Event) { received <- e })

	cacheSvc := cache.New(cache.Config{Enabled: false})
	sc := New(provider, bus, cacheSvc, indicators.Defaults(), signal.DefaultConfig(), DefaultConfig())
	sc.seedRecords([]string{"BTCUSDT"})
	sc.records["BTCUSDT"].BestBid = 99.9
	sc.records["BTCUSDT"].BestAsk = 100.0
	sc.records["BTCUSDT"].LastPrice = 100.0

	sc.ScanNow(context.Background())

	select {
	case e := <-received:
		if opps, _ := e.Data["opportunities"].([]Opportunity); len(opps) == 0 {
			t.Fatalf("expected the published list to contain the trending symbol, got %v", e.Data["opportunities"])
		}
	case <-time.After(time.Second):
		t.Fatalf("expected an OPPORTUNITIES event to be published")
	}
}

func TestRankScore_HigherConfidenceRanksAbove(t *testing.T) {
	strong := model.Signal{TotalScore: 150, Confidence: 0.95, Confluence: 0.8, Classification: model.ExtremeBuy}
	weak := model.Signal{TotalScore: 100, Confidence: 0.75, Confluence: 0.6, Classification: model.Buy}

	if rankScore(strong, 0.01, 100_000_000) <= rankScore(weak, 0.01, 100_000_000) {
		t.Fatalf("expected stronger signal to rank higher")
	}
}
