package fake

import (
	"context"
	"testing"

	"screener/internal/marketdata"
	"screener/internal/model"
)

func TestFetchCandles_ReturnsSeededSeries(t *testing.T) {
	p := New()
	p.SeedCandles("BTCUSDT", []model.Candle{{Close: 100}, {Close: 101}})

	got, err := p.FetchCandles(context.Background(), "BTCUSDT", 5, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(got))
	}
}

func TestFetchFundingRate_UnsupportedWhenNotSeeded(t *testing.T) {
	p := New()
	_, err := p.FetchFundingRate(context.Background(), "BTCUSDT")
	if err != marketdata.ErrFundingRateUnsupported {
		t.Fatalf("expected ErrFundingRateUnsupported, got %v", err)
	}
}

func TestListContracts_ReturnsSeededList(t *testing.T) {
	p := New()
	p.SeedContracts([]marketdata.Contract{{Symbol: "BTCUSDT", MaxLeverage: 125}})

	got, err := p.ListContracts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "BTCUSDT" {
		t.Fatalf("unexpected contracts: %+v", got)
	}
}
