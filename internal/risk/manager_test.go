package risk

import (
	"testing"
	"time"

	"screener/internal/model"
)

func strongSignal() model.Signal {
	return model.Signal{
		TotalScore:     100,
		Classification: model.StrongBuy,
		Confidence:     0.9,
		BullishCount:   6,
		BearishCount:   2,
		ATRRegime:      model.ATRRegimeMedium,
	}
}

func TestSizing_StrongLongOpen(t *testing.T) {
	now := time.Now()
	m := NewManager(DefaultConfig(), 10000, now)
	sig := strongSignal()
	res := m.CanOpenPosition(sig, now)
	if !res.Allowed {
		t.Fatalf("expected allowed, got rejected: %s", res.Reason)
	}
	sizing := m.Size(sig)
	if sizing.SizePct <= 0 {
		t.Fatalf("expected positive size, got %f", sizing.SizePct)
	}
	if sizing.Leverage < 2 || sizing.Leverage > 10 {
		t.Fatalf("expected leverage in [2,10], got %d", sizing.Leverage)
	}
	sl, tp := ExitLevels(model.Long, 50000, sizing.Leverage, DefaultConfig())
	if !(sl < 50000 && 50000 < tp) {
		t.Fatalf("expected stopLoss < entry < takeProfit, got sl=%f tp=%f", sl, tp)
	}
}

func TestMaxPositionsBlock(t *testing.T) {
	now := time.Now()
	m := NewManager(DefaultConfig(), 10000, now)
	for i := 0; i < 5; i++ {
		m.Track(string(rune('a' + i)))
	}
	res := m.CanOpenPosition(strongSignal(), now)
	if res.Allowed {
		t.Fatalf("expected rejection at max open positions")
	}
	if !containsSubstr(res.Reason, "Max open positions") {
		t.Fatalf("expected reason to mention Max open positions, got %q", res.Reason)
	}
}

func TestCircuitBreaker_LatchesAfterThreeLosses(t *testing.T) {
	now := time.Now()
	m := NewManager(DefaultConfig(), 10000, now)
	for i := 0; i < 3; i++ {
		m.RecordTradeResult(-100, now)
	}
	res := m.CanOpenPosition(strongSignal(), now)
	if res.Allowed {
		t.Fatalf("expected circuit breaker to block the fourth attempt")
	}
	if !containsSubstr(res.Reason, "Circuit breaker") {
		t.Fatalf("expected reason to mention Circuit breaker, got %q", res.Reason)
	}
}

func TestLiquidationBuffer(t *testing.T) {
	cfg := DefaultConfig()
	liq := LiquidationPrice(model.Long, 50000, 10, cfg)
	_, safeAt48000 := LiquidationBufferSafe(48000, liq, cfg)
	if !safeAt48000 {
		t.Fatalf("expected safe at 48000, liquidation=%f", liq)
	}
	_, safeAt45500 := LiquidationBufferSafe(45500, liq, cfg)
	if safeAt45500 {
		t.Fatalf("expected unsafe at 45500, liquidation=%f", liq)
	}
}

func TestDailyDrawdownBlock(t *testing.T) {
	now := time.Now()
	m := NewManager(DefaultConfig(), 10000, now)
	m.UpdateBalance(9600, now) // 4% drawdown > 3% default
	res := m.CanOpenPosition(strongSignal(), now)
	if res.Allowed {
		t.Fatalf("expected drawdown block")
	}
	if !containsSubstr(res.Reason, "drawdown") {
		t.Fatalf("expected reason to mention drawdown, got %q", res.Reason)
	}
}

func TestConsecutiveLossesResetOnNonNegativePnL(t *testing.T) {
	now := time.Now()
	m := NewManager(DefaultConfig(), 10000, now)
	m.RecordTradeResult(-50, now)
	m.RecordTradeResult(-50, now)
	m.RecordTradeResult(0, now)
	if m.consecutiveLosses != 0 {
		t.Fatalf("expected consecutiveLosses reset to 0, got %d", m.consecutiveLosses)
	}
}

func containsSubstr(s, substr string) bool {
	return contains(s, substr)
}
