package paper

import (
	"testing"
	"time"

	"screener/internal/model"
	"screener/internal/risk"
)

func strongSignal() model.Signal {
	return model.Signal{
		Symbol:         "BTCUSDT",
		TotalScore:     100,
		Classification: model.StrongBuy,
		Confidence:     0.9,
		BullishCount:   6,
		BearishCount:   2,
		ATRRegime:      model.ATRRegimeMedium,
	}
}

func newTrader(now time.Time) *Trader {
	rm := risk.NewManager(risk.DefaultConfig(), DefaultConfig().InitialBalance, now)
	return New(DefaultConfig(), rm, nil, now)
}

func TestOpen_AllocatesPositionAndDebitsFee(t *testing.T) {
	now := time.Now()
	tr := newTrader(now)

	res := tr.Open("BTCUSDT", model.Long, strongSignal(), 50000, now)
	if !res.Success {
		t.Fatalf("expected open to succeed, got reason: %s", res.Reason)
	}
	acc := tr.Account()
	if len(acc.Positions) != 1 {
		t.Fatalf("expected 1 open position, got %d", len(acc.Positions))
	}
	if acc.Balance >= DefaultConfig().InitialBalance {
		t.Fatalf("expected balance debited by openFee, got %f", acc.Balance)
	}
	if acc.Margin <= 0 || acc.FreeMargin <= 0 {
		t.Fatalf("expected positive margin and freeMargin, got margin=%f freeMargin=%f", acc.Margin, acc.FreeMargin)
	}
}

func TestTick_StopLossClosesPosition(t *testing.T) {
	now := time.Now()
	tr := newTrader(now)

	res := tr.Open("BTCUSDT", model.Long, strongSignal(), 50000, now)
	if !res.Success {
		t.Fatalf("open failed: %s", res.Reason)
	}
	pos := res.Position

	closed := tr.Tick(pos.ID, pos.StopLoss-1, now)
	if closed == nil || !closed.Success {
		t.Fatalf("expected stop-loss close")
	}
	if closed.Position.CloseReason != model.CloseStopLoss {
		t.Fatalf("expected close reason stop_loss, got %s", closed.Position.CloseReason)
	}
	acc := tr.Account()
	if len(acc.Positions) != 0 {
		t.Fatalf("expected position removed from open set after close")
	}
}

func TestTick_TakeProfitClosesPosition(t *testing.T) {
	now := time.Now()
	tr := newTrader(now)

	res := tr.Open("BTCUSDT", model.Long, strongSignal(), 50000, now)
	pos := res.Position

	closed := tr.Tick(pos.ID, pos.TakeProfit+1, now)
	if closed == nil || !closed.Success {
		t.Fatalf("expected take-profit close")
	}
	if closed.Position.CloseReason != model.CloseTakeProfit {
		t.Fatalf("expected close reason take_profit, got %s", closed.Position.CloseReason)
	}
	if closed.Position.RealizedPnL <= 0 {
		t.Fatalf("expected positive realized PnL on take profit, got %f", closed.Position.RealizedPnL)
	}
}

func TestClose_ManualUpdatesStatsAndRiskManager(t *testing.T) {
	now := time.Now()
	tr := newTrader(now)

	res := tr.Open("BTCUSDT", model.Long, strongSignal(), 50000, now)
	closeRes := tr.Close(res.Position.ID, 50500, model.CloseManual, now)
	if !closeRes.Success {
		t.Fatalf("expected manual close to succeed")
	}
	report := tr.Stats(now)
	if report.TotalTrades != 1 {
		t.Fatalf("expected 1 total trade, got %d", report.TotalTrades)
	}
	if n := len(tr.rm.State().TrackedPositions); n != 0 {
		t.Fatalf("expected the risk manager to untrack the closed position, got %d tracked", n)
	}
}

func TestReset_RestoresInitialBalanceAndEmptiesState(t *testing.T) {
	now := time.Now()
	tr := newTrader(now)

	tr.Open("BTCUSDT", model.Long, strongSignal(), 50000, now)
	tr.Reset(now)

	acc := tr.Account()
	if acc.Balance != DefaultConfig().InitialBalance {
		t.Fatalf("expected balance reset to initial, got %f", acc.Balance)
	}
	if len(acc.Positions) != 0 {
		t.Fatalf("expected no open positions after reset")
	}
	if len(tr.Trades()) != 0 {
		t.Fatalf("expected empty trade log after reset")
	}
}

func TestAccountInvariant_EquityMatchesBalancePlusUnrealized(t *testing.T) {
	now := time.Now()
	tr := newTrader(now)

	res := tr.Open("BTCUSDT", model.Long, strongSignal(), 50000, now)
	tr.Tick(res.Position.ID, 50200, now)

	acc := tr.Account()
	var unrealized float64
	for _, p := range acc.Positions {
		unrealized += p.UnrealizedPnL
	}
	if acc.Equity != acc.Balance+unrealized {
		t.Fatalf("equity invariant violated: equity=%f balance=%f unrealized=%f", acc.Equity, acc.Balance, unrealized)
	}
	if acc.FreeMargin != acc.Equity-acc.Margin {
		t.Fatalf("freeMargin invariant violated: freeMargin=%f equity=%f margin=%f", acc.FreeMargin, acc.Equity, acc.Margin)
	}
}
