// Package risk implements the Risk Manager: entry gates, position sizing,
// the circuit breaker, and daily PnL/drawdown accounting. Grounded on the
// teacher's internal/risk/manager.go (Config + sync.RWMutex-guarded state,
// CanOpenPosition/CalculatePositionSize/RegisterPositionClose method shape)
// merged with internal/circuit/breaker.go's consecutive-loss latch
// (CanTrade/RecordTrade/ForceReset) — trimmed to only the dimension
// spec.md §4.3 names. The teacher's hourly/daily-loss and trade-rate-limit
// breaker dimensions are intentionally dropped; see DESIGN.md.
package risk

import (
	"sync"
	"time"

	"screener/internal/model"
)

// Config carries every risk parameter spec.md §6 lists as configurable.
type Config struct {
	MaxDailyDrawdown        float64 // default 0.03
	MaxOpenPositions        int     // default 5
	MinScore                int     // default 75
	MinConfluenceCount      int     // default 4
	MinConfidence           float64 // default 0.85
	CircuitBreakerThreshold int     // default 3

	DefaultPositionSize float64 // sizePct default
	MaxPositionSize     float64
	DefaultLeverage     int
	MaxLeverage         int

	TakerFee float64 // default 0.0006
	SLROI    float64 // default 0.06
	TPROI    float64 // default 0.15

	MaintenanceMarginRate float64 // default 0.005
	MinLiquidationBuffer  float64 // default 0.05
}

// DefaultConfig returns spec.md §4.3's default risk parameters.
func DefaultConfig() Config {
	return Config{
		MaxDailyDrawdown:        0.03,
		MaxOpenPositions:        5,
		MinScore:                75,
		MinConfluenceCount:      4,
		MinConfidence:           0.85,
		CircuitBreakerThreshold: 3,
		DefaultPositionSize:     0.05,
		MaxPositionSize:         0.20,
		DefaultLeverage:         5,
		MaxLeverage:             10,
		TakerFee:                0.0006,
		SLROI:                   0.06,
		TPROI:                   0.15,
		MaintenanceMarginRate:   0.005,
		MinLiquidationBuffer:    0.05,
	}
}

// Manager holds dailyStartBalance/currentBalance/dailyPnL/consecutiveLosses/
// circuitBreakerTriggered and a tracked-positions id set, guarded by a single
// mutex — the teacher's own "RWMutex around a small state struct" idiom.
type Manager struct {
	mu sync.RWMutex

	cfg Config

	dailyStartBalance       float64
	currentBalance          float64
	dailyPnL                float64
	consecutiveLosses       int
	circuitBreakerTriggered bool
	dailyResetAt            time.Time
	tracked                 map[string]struct{}
}

// NewManager seeds dailyStartBalance/currentBalance from initialBalance, the
// way the teacher's NewRiskManager seeds accountBalance.
func NewManager(cfg Config, initialBalance float64, now time.Time) *Manager {
	return &Manager{
		cfg:               cfg,
		dailyStartBalance: initialBalance,
		currentBalance:    initialBalance,
		dailyResetAt:      utcMidnight(now),
		tracked:           make(map[string]struct{}),
	}
}

// ConfigSnapshot returns the Manager's risk Config — used by the Paper
// Trader to derive exit levels and liquidation prices with the same
// parameters the Manager itself gates and sizes against.
func (m *Manager) ConfigSnapshot() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// maybeDailyReset performs the UTC-midnight reset described in spec.md
// §4.3: dailyStartBalance := currentBalance, dailyPnL := 0,
// consecutiveLosses := 0, circuitBreakerTriggered := false. Must be called
// with mu held.
func (m *Manager) maybeDailyReset(now time.Time) {
	today := utcMidnight(now)
	if !today.After(m.dailyResetAt) {
		return
	}
	m.dailyResetAt = today
	m.dailyStartBalance = m.currentBalance
	m.dailyPnL = 0
	m.consecutiveLosses = 0
	m.circuitBreakerTriggered = false
}

// UpdateBalance sets the account's current balance (called by the Paper
// Trader after every equity-affecting event) and recomputes dailyPnL.
func (m *Manager) UpdateBalance(balance float64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeDailyReset(now)
	m.currentBalance = balance
	m.dailyPnL = m.currentBalance - m.dailyStartBalance
}

// GateResult is the {allowed, reason} value every entry gate returns —
// spec.md §7 treats a gate rejection as a value, never an error.
type GateResult struct {
	Allowed bool
	Reason  string
}

// CanOpenPosition runs spec.md §4.3's six entry gates in order, returning on
// the first failure.
func (m *Manager) CanOpenPosition(sig model.Signal, now time.Time) GateResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeDailyReset(now)

	if m.circuitBreakerTriggered {
		return GateResult{false, "Circuit breaker triggered"}
	}

	dailyDrawdown := 0.0
	if m.dailyStartBalance > 0 {
		dailyDrawdown = (m.dailyStartBalance - m.currentBalance) / m.dailyStartBalance
		if dailyDrawdown < 0 {
			dailyDrawdown = 0
		}
	}
	if dailyDrawdown >= m.cfg.MaxDailyDrawdown {
		return GateResult{false, "Max daily drawdown exceeded"}
	}
	if len(m.tracked) >= m.cfg.MaxOpenPositions {
		return GateResult{false, "Max open positions reached"}
	}
	if abs(sig.TotalScore) < m.cfg.MinScore {
		return GateResult{false, "Signal score below minimum"}
	}
	maxConfluence := sig.BullishCount
	if sig.BearishCount > maxConfluence {
		maxConfluence = sig.BearishCount
	}
	if maxConfluence < m.cfg.MinConfluenceCount {
		return GateResult{false, "Confluence below minimum"}
	}
	if sig.Confidence < m.cfg.MinConfidence {
		return GateResult{false, "Confidence below minimum"}
	}
	return GateResult{true, ""}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// SizingResult is the output of position sizing.
type SizingResult struct {
	SizePct  float64
	Leverage int
}

// Size implements spec.md §4.3's sizing formula: sizePct = defaultSize *
// confidence, boosted 1.20x for EXTREME classifications, 0.80x for WEAK
// ones, then clamped to maxPositionSize. Leverage starts at defaultLeverage
// and is clamped by the ATR regime (HIGH -> <=4, LOW -> +2 up to max).
func (m *Manager) Size(sig model.Signal) SizingResult {
	m.mu.RLock()
	cfg := m.cfg
	m.mu.RUnlock()

	sizePct := cfg.DefaultPositionSize * sig.Confidence
	class := string(sig.Classification)
	switch {
	case contains(class, "EXTREME"):
		sizePct *= 1.20
	case contains(class, "WEAK"):
		sizePct *= 0.80
	}
	if sizePct > cfg.MaxPositionSize {
		sizePct = cfg.MaxPositionSize
	}

	leverage := cfg.DefaultLeverage
	switch sig.ATRRegime {
	case model.ATRRegimeHigh:
		if leverage > 4 {
			leverage = 4
		}
	case model.ATRRegimeLow:
		leverage += 2
		if leverage > cfg.MaxLeverage {
			leverage = cfg.MaxLeverage
		}
	}
	return SizingResult{SizePct: sizePct, Leverage: leverage}
}

func contains(s, substr string) bool {
	return indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// ExitLevels computes stop-loss/take-profit per spec.md §4.3, with the
// taker-fee bite already folded into the stop distance.
func ExitLevels(side model.Side, entry float64, leverage int, cfg Config) (stopLoss, takeProfit float64) {
	slFrac := (cfg.SLROI - 2*cfg.TakerFee) / float64(leverage)
	tpFrac := cfg.TPROI / float64(leverage)
	if side == model.Long {
		return entry * (1 - slFrac), entry * (1 + tpFrac)
	}
	return entry * (1 + slFrac), entry * (1 - tpFrac)
}

// LiquidationPrice computes the theoretical liquidation price for a side.
func LiquidationPrice(side model.Side, entry float64, leverage int, cfg Config) float64 {
	if side == model.Long {
		return entry * (1 - (1/float64(leverage))*(1-cfg.MaintenanceMarginRate))
	}
	return entry * (1 + (1/float64(leverage))*(1-cfg.MaintenanceMarginRate))
}

// LiquidationBufferSafe reports whether the distance from currentPrice to
// the liquidation price, as a fraction of currentPrice, is at least
// MinLiquidationBuffer.
func LiquidationBufferSafe(currentPrice, liquidationPrice float64, cfg Config) (buffer float64, safe bool) {
	if currentPrice == 0 {
		return 0, false
	}
	buffer = absf(currentPrice-liquidationPrice) / currentPrice
	return buffer, buffer >= cfg.MinLiquidationBuffer
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Track registers an opened position's id for max-open-positions gating.
func (m *Manager) Track(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked[id] = struct{}{}
}

// Untrack removes a closed position's id.
func (m *Manager) Untrack(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tracked, id)
}

// RecordTradeResult updates the circuit breaker from a realized close:
// pnl < 0 increments consecutiveLosses; pnl >= 0 resets it to zero. Reaching
// CircuitBreakerThreshold latches the breaker until a manual reset.
func (m *Manager) RecordTradeResult(pnl float64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeDailyReset(now)

	if pnl < 0 {
		m.consecutiveLosses++
	} else {
		m.consecutiveLosses = 0
	}
	if m.consecutiveLosses >= m.cfg.CircuitBreakerThreshold {
		m.circuitBreakerTriggered = true
	}
}

// ResetCircuitBreaker is the operator's explicit manual reset.
func (m *Manager) ResetCircuitBreaker() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitBreakerTriggered = false
	m.consecutiveLosses = 0
}

// State returns a snapshot of RiskState for display/ACCOUNT_UPDATE events.
func (m *Manager) State() model.RiskState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.tracked))
	for id := range m.tracked {
		ids = append(ids, id)
	}
	return model.RiskState{
		DailyStartBalance:       m.dailyStartBalance,
		CurrentBalance:          m.currentBalance,
		DailyPnL:                m.dailyPnL,
		ConsecutiveLosses:       m.consecutiveLosses,
		CircuitBreakerTriggered: m.circuitBreakerTriggered,
		TrackedPositions:        ids,
	}
}

// Reset restores risk state to a fresh initial balance, matching the Paper
// Trader's account Reset operation (spec.md §4.4).
func (m *Manager) Reset(initialBalance float64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyStartBalance = initialBalance
	m.currentBalance = initialBalance
	m.dailyPnL = 0
	m.consecutiveLosses = 0
	m.circuitBreakerTriggered = false
	m.dailyResetAt = utcMidnight(now)
	m.tracked = make(map[string]struct{})
}
