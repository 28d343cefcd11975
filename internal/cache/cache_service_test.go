package cache

import (
	"context"
	"testing"
	"time"

	"screener/internal/model"
)

func TestCandleCache_MemoryFallbackRoundTrip(t *testing.T) {
	s := New(Config{Enabled: false})
	ctx := context.Background()

	candles := []model.Candle{{Close: 100}, {Close: 101}}
	s.PutCandles(ctx, "BTCUSDT", "5m", candles)

	got, ok := s.GetCandles(ctx, "BTCUSDT", "5m")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if len(got) != 2 || got[1].Close != 101 {
		t.Fatalf("unexpected candles: %+v", got)
	}
}

func TestCandleCache_MissForUnknownKey(t *testing.T) {
	s := New(Config{Enabled: false})
	if _, ok := s.GetCandles(context.Background(), "ETHUSDT", "5m"); ok {
		t.Fatalf("expected miss for unknown symbol")
	}
}

func TestCooldown_ExpiresAfterDuration(t *testing.T) {
	s := New(Config{Enabled: false})
	ctx := context.Background()

	s.SetCooldown(ctx, "BTCUSDT", 10*time.Millisecond)
	if !s.OnCooldown(ctx, "BTCUSDT") {
		t.Fatalf("expected symbol on cooldown immediately after SetCooldown")
	}
	time.Sleep(20 * time.Millisecond)
	if s.OnCooldown(ctx, "BTCUSDT") {
		t.Fatalf("expected cooldown to have expired")
	}
}

func TestDisabledService_StartsDegradedAndUnhealthy(t *testing.T) {
	s := New(Config{Enabled: false})
	if s.IsHealthy() {
		t.Fatalf("a never-enabled cache should report unhealthy, not silently healthy")
	}
}
