// Package paper implements the Paper Trader: position fills, account
// bookkeeping, stop/take/liquidation evaluation on price ticks, and
// lifetime stats. Grounded on the teacher's (now superseded)
// internal/binance/futures_mock_client.go fill mechanics — a
// sync.RWMutex-guarded map of simulated positions recomputed against a
// live-price callback on every read — generalized from a single Binance
// mock client into the venue-agnostic simulator spec.md §4.4 names, and on
// internal/orders/position_tracker.go's nil-safe optional-repository
// pattern for the trade log.
package paper

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"screener/internal/model"
	"screener/internal/risk"
)

// Config carries the simulated trading costs and starting balance spec.md
// §6 lists under "paper-trading costs".
type Config struct {
	TakerFee       float64 // default 0.0006
	MakerFee       float64 // default 0.0002, unused for market fills but kept for display
	Slippage       float64 // default 0.0005
	InitialBalance float64 // default 10000
}

// DefaultConfig returns spec.md §4.4's default paper-trading costs.
func DefaultConfig() Config {
	return Config{
		TakerFee:       0.0006,
		MakerFee:       0.0002,
		Slippage:       0.0005,
		InitialBalance: 10000,
	}
}

// TradeLogRepository is an optional sink for trade records — the Paper
// Trader works with it nil (in-memory only, per spec.md §6's "no persisted
// state"), exactly as the teacher's position tracker tolerates a nil
// database repository and degrades to memory-only bookkeeping.
type TradeLogRepository interface {
	Append(record model.TradeRecord)
}

// OpenResult is the outcome of Open — a domain rejection is a value, never
// an error (spec.md §7).
type OpenResult struct {
	Success  bool
	Reason   string
	Position model.Position
}

// CloseResult is the outcome of Close.
type CloseResult struct {
	Success  bool
	Reason   string
	Position model.Position
	Trade    model.TradeRecord
}

// Trader owns every Position and the Account they live in — positions are
// exclusively the Paper Trader's; the Risk Manager only keeps a weak
// id-keyed tracking reference (spec.md §3 "Ownership & lifecycle").
type Trader struct {
	mu sync.Mutex

	cfg Config
	rm  *risk.Manager
	log TradeLogRepository

	account model.Account
	stats   model.Stats
	trades  []model.TradeRecord
}

// New creates a Trader with a fresh account at cfg.InitialBalance. log may
// be nil.
func New(cfg Config, rm *risk.Manager, log TradeLogRepository, now time.Time) *Trader {
	return &Trader{
		cfg: cfg,
		rm:  rm,
		log: log,
		account: model.Account{
			Balance:    cfg.InitialBalance,
			Equity:     cfg.InitialBalance,
			FreeMargin: cfg.InitialBalance,
			Positions:  make(map[string]*model.Position),
		},
		stats: model.Stats{StartTime: now, InitialEquity: cfg.InitialBalance, PeakEquity: cfg.InitialBalance},
	}
}

func (t *Trader) appendTrade(rec model.TradeRecord) {
	t.trades = append(t.trades, rec)
	if t.log != nil {
		t.log.Append(rec)
	}
}

// Open simulates a market-order fill for symbol, sized and leveraged per the
// Risk Manager's sizing decision for sig (spec.md §4.4 steps 1-6).
func (t *Trader) Open(symbol string, side model.Side, sig model.Signal, marketPrice float64, now time.Time) OpenResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	gate := t.rm.CanOpenPosition(sig, now)
	if !gate.Allowed {
		return OpenResult{Success: false, Reason: gate.Reason}
	}
	sizing := t.rm.Size(sig)
	if sizing.SizePct <= 0 {
		return OpenResult{Success: false, Reason: "position size resolved to zero"}
	}

	fillPrice := marketPrice
	if side == model.Long {
		fillPrice = marketPrice * (1 + t.cfg.Slippage)
	} else {
		fillPrice = marketPrice * (1 - t.cfg.Slippage)
	}

	sizeNotionalBase := t.account.Equity * sizing.SizePct
	size := sizeNotionalBase / fillPrice
	notional := size * fillPrice
	margin := notional / float64(sizing.Leverage)
	openFee := notional * t.cfg.TakerFee

	if margin > t.account.FreeMargin {
		return OpenResult{Success: false, Reason: "insufficient free margin"}
	}

	stopLoss, takeProfit := risk.ExitLevels(side, fillPrice, sizing.Leverage, t.rm.ConfigSnapshot())

	pos := &model.Position{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		Side:           side,
		Size:           size,
		EntryPrice:     fillPrice,
		CurrentPrice:   fillPrice,
		Leverage:       sizing.Leverage,
		Margin:         margin,
		StopLoss:       stopLoss,
		TakeProfit:     takeProfit,
		OpenFee:        openFee,
		SignalSnapshot: sig,
		OpenTime:       now,
		Status:         model.PositionOpen,
	}

	t.account.Positions[pos.ID] = pos
	t.account.Margin += margin
	t.account.FreeMargin -= margin
	t.account.Balance -= openFee
	t.recomputeEquity()

	t.rm.Track(pos.ID)
	t.appendTrade(model.TradeRecord{Kind: "OPEN", Position: *pos, Timestamp: now})

	log.Info().Str("symbol", symbol).Str("side", string(side)).Float64("size", size).
		Int("leverage", sizing.Leverage).Msg("paper position opened")

	return OpenResult{Success: true, Position: *pos}
}

// Tick updates one open position's mark price and unrealized PnL, then
// evaluates its stop-loss/take-profit/liquidation-buffer state in the order
// spec.md §4.4 names. A fired stop or take closes the position immediately;
// an unsafe liquidation buffer only emits a warning log — the operator
// decides whether to close.
func (t *Trader) Tick(positionID string, currentPrice float64, now time.Time) (closed *CloseResult) {
	t.mu.Lock()
	pos, ok := t.account.Positions[positionID]
	if !ok {
		t.mu.Unlock()
		return nil
	}

	pos.CurrentPrice = currentPrice
	pos.UnrealizedPnL = unrealizedPnL(pos.Side, pos.EntryPrice, currentPrice, pos.Size)
	t.recomputeEquity()

	stopFired := (pos.Side == model.Long && currentPrice <= pos.StopLoss) ||
		(pos.Side == model.Short && currentPrice >= pos.StopLoss)
	takeFired := !stopFired && ((pos.Side == model.Long && currentPrice >= pos.TakeProfit) ||
		(pos.Side == model.Short && currentPrice <= pos.TakeProfit))

	cfg := t.rm.ConfigSnapshot()
	liq := risk.LiquidationPrice(pos.Side, pos.EntryPrice, pos.Leverage, cfg)
	_, safe := risk.LiquidationBufferSafe(currentPrice, liq, cfg)

	t.mu.Unlock()

	switch {
	case stopFired:
		res := t.Close(positionID, currentPrice, model.CloseStopLoss, now)
		return &res
	case takeFired:
		res := t.Close(positionID, currentPrice, model.CloseTakeProfit, now)
		return &res
	case !safe:
		log.Warn().Str("symbol", pos.Symbol).Str("positionId", positionID).
			Float64("current", currentPrice).Float64("liquidation", liq).
			Msg("liquidation buffer unsafe")
	}
	return nil
}

func unrealizedPnL(side model.Side, entry, current, size float64) float64 {
	if side == model.Long {
		return (current - entry) * size
	}
	return (entry - current) * size
}

// Close realizes a position's PnL and removes it from the open set (spec.md
// §4.4's five-step close procedure).
func (t *Trader) Close(positionID string, price float64, reason model.CloseReason, now time.Time) CloseResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.account.Positions[positionID]
	if !ok {
		return CloseResult{Success: false, Reason: "unknown position"}
	}

	fillPrice := price
	if pos.Side == model.Long {
		fillPrice = price * (1 - t.cfg.Slippage)
	} else {
		fillPrice = price * (1 + t.cfg.Slippage)
	}

	notional := pos.Size * fillPrice
	closeFee := notional * t.cfg.TakerFee
	grossPnL := unrealizedPnL(pos.Side, pos.EntryPrice, fillPrice, pos.Size)
	netPnL := grossPnL - pos.OpenFee - closeFee

	t.account.Margin -= pos.Margin
	if t.account.Margin < 0 {
		t.account.Margin = 0
	}
	t.account.FreeMargin += pos.Margin
	t.account.Balance += netPnL
	t.account.RealizedProfit += netPnL

	pos.ClosePrice = fillPrice
	pos.CloseFee = closeFee
	pos.RealizedPnL = netPnL
	pos.CloseTime = now
	pos.CloseReason = reason
	pos.Status = model.PositionClosed

	closedPos := *pos
	delete(t.account.Positions, positionID)
	t.recomputeEquity()

	t.updateStats(netPnL)

	trade := model.TradeRecord{Kind: "CLOSE", Position: closedPos, Timestamp: now}
	t.appendTrade(trade)

	t.rm.Untrack(positionID)
	t.rm.UpdateBalance(t.account.Balance, now)
	t.rm.RecordTradeResult(netPnL, now)

	log.Info().Str("symbol", closedPos.Symbol).Str("reason", string(reason)).
		Float64("pnl", netPnL).Msg("paper position closed")

	return CloseResult{Success: true, Position: closedPos, Trade: trade}
}

// CloseAll closes every open position with reason close_all — the operator
// command of the same name.
func (t *Trader) CloseAll(price func(symbol string) float64, now time.Time) []CloseResult {
	t.mu.Lock()
	ids := make([]string, 0, len(t.account.Positions))
	symbols := make(map[string]string, len(t.account.Positions))
	for id, p := range t.account.Positions {
		ids = append(ids, id)
		symbols[id] = p.Symbol
	}
	t.mu.Unlock()

	results := make([]CloseResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, t.Close(id, price(symbols[id]), model.CloseAll, now))
	}
	return results
}

// recomputeEquity re-derives Equity/FreeMargin from Balance/Margin and the
// sum of open unrealized PnL — must be called with mu held.
func (t *Trader) recomputeEquity() {
	unrealized := 0.0
	for _, p := range t.account.Positions {
		unrealized += p.UnrealizedPnL
	}
	t.account.Equity = t.account.Balance + unrealized
	t.account.FreeMargin = t.account.Equity - t.account.Margin
}

func (t *Trader) updateStats(netPnL float64) {
	t.stats.TotalTrades++
	if netPnL >= 0 {
		t.stats.Wins++
		t.stats.GrossProfit += netPnL
	} else {
		t.stats.Losses++
		t.stats.GrossLoss += -netPnL
	}
	if t.account.Equity > t.stats.PeakEquity {
		t.stats.PeakEquity = t.account.Equity
	}
	if t.stats.PeakEquity > 0 {
		drawdown := (t.stats.PeakEquity - t.account.Equity) / t.stats.PeakEquity
		if drawdown > t.stats.MaxDrawdown {
			t.stats.MaxDrawdown = drawdown
		}
	}
}

// Account returns a snapshot of the current account state.
func (t *Trader) Account() model.Account {
	t.mu.Lock()
	defer t.mu.Unlock()
	positions := make(map[string]*model.Position, len(t.account.Positions))
	for id, p := range t.account.Positions {
		cp := *p
		positions[id] = &cp
	}
	acc := t.account
	acc.Positions = positions
	return acc
}

// Report is the computed, display-ready statistics set spec.md §4.4 names:
// winRate, profitFactor, average win/loss, expectancy, ROI, running days,
// annualized return.
type Report struct {
	model.Stats
	WinRate         float64
	ProfitFactor    float64
	AvgWin          float64
	AvgLoss         float64
	Expectancy      float64
	ROI             float64
	RunningDays     float64
	AnnualizedReturn float64
}

// Stats computes the on-demand report described in spec.md §4.4.
func (t *Trader) Stats(now time.Time) Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stats
	r := Report{Stats: s}

	if s.TotalTrades > 0 {
		r.WinRate = float64(s.Wins) / float64(s.TotalTrades)
	}
	switch {
	case s.GrossLoss == 0 && s.GrossProfit > 0:
		r.ProfitFactor = math.Inf(1)
	case s.GrossLoss == 0:
		r.ProfitFactor = 0
	default:
		r.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	if s.Wins > 0 {
		r.AvgWin = s.GrossProfit / float64(s.Wins)
	}
	if s.Losses > 0 {
		r.AvgLoss = s.GrossLoss / float64(s.Losses)
	}
	r.Expectancy = r.WinRate*r.AvgWin - (1-r.WinRate)*r.AvgLoss

	if s.InitialEquity > 0 {
		r.ROI = (t.account.Equity - s.InitialEquity) / s.InitialEquity
	}
	r.RunningDays = now.Sub(s.StartTime).Hours() / 24
	if r.RunningDays > 0 {
		r.AnnualizedReturn = r.ROI * (365 / r.RunningDays)
	}
	return r
}

// Reset restores the account to a fresh initial balance, empties positions
// and the trade log, and re-initializes the Risk Manager (spec.md §4.4's
// Reset operation and the operator's reset_account command).
func (t *Trader) Reset(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.account = model.Account{
		Balance:    t.cfg.InitialBalance,
		Equity:     t.cfg.InitialBalance,
		FreeMargin: t.cfg.InitialBalance,
		Positions:  make(map[string]*model.Position),
	}
	t.stats = model.Stats{StartTime: now, InitialEquity: t.cfg.InitialBalance, PeakEquity: t.cfg.InitialBalance}
	t.trades = nil
	t.rm.Reset(t.cfg.InitialBalance, now)
}

// Trades returns a copy of the in-memory trade log.
func (t *Trader) Trades() []model.TradeRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.TradeRecord, len(t.trades))
	copy(out, t.trades)
	return out
}
