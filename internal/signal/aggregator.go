// Package signal implements the Signal Aggregator: a pure, deterministic
// pipeline that combines per-indicator results into one bounded Signal.
// Grounded on the shape of internal/confluence/scorer.go (weighted-sum then
// threshold) and internal/autopilot/signal_aggregator.go (multi-indicator
// combination pipeline), rewritten with spec.md §4.2's exact cap/penalty
// arithmetic, which neither teacher file implements.
package signal

import (
	"math"
	"time"

	"screener/internal/model"
)

// Band is one closed interval of the nine-way classification partition.
type Band struct {
	Classification model.Classification
	Min, Max       int
}

// Config carries the caps, bands, and confidence-penalty constants —
// every one of which is overridable, so "if config supplies different
// penalties, apply those verbatim" (spec.md §9) holds by construction.
type Config struct {
	IndicatorCap int // default 200
	MicroCap     int // default 20
	TotalCap     int // default 220
	Bands        []Band

	LowScoreThreshold   int     // default 60 — |totalScore| below this penalizes
	LowScorePenalty     float64 // default 0.10
	ATRHighPercent      float64 // default 6
	ATRHighPenalty      float64 // default 0.06
	ATRMediumPercent    float64 // default 4
	ATRMediumPenalty    float64 // default 0.03
	ConflictPenaltyUnit float64 // default 0.02 per min(bullish,bearish)
	LowConfluence       float64 // default 0.6
	LowConfluencePenalty float64 // default 0.05
}

// DefaultBands returns the nine ordered bands partitioning [-220, 220], with
// boundaries chosen so the spec.md §8 boundary scenarios hold exactly:
// 130 classifies EXTREME_BUY, 129 STRONG_BUY, -39 NEUTRAL, -40 SELL_WEAK.
func DefaultBands() []Band {
	return []Band{
		{model.ExtremeBuy, 130, 220},
		{model.StrongBuy, 90, 129},
		{model.Buy, 60, 89},
		{model.BuyWeak, 40, 59},
		{model.Neutral, -39, 39},
		{model.SellWeak, -59, -40},
		{model.Sell, -89, -60},
		{model.StrongSell, -129, -90},
		{model.ExtremeSell, -220, -130},
	}
}

// DefaultConfig returns spec.md §4.2's default cap/penalty constants.
func DefaultConfig() Config {
	return Config{
		IndicatorCap:         200,
		MicroCap:             20,
		TotalCap:             220,
		Bands:                DefaultBands(),
		LowScoreThreshold:    60,
		LowScorePenalty:      0.10,
		ATRHighPercent:       6,
		ATRHighPenalty:       0.06,
		ATRMediumPercent:     4,
		ATRMediumPenalty:     0.03,
		ConflictPenaltyUnit:  0.02,
		LowConfluence:        0.6,
		LowConfluencePenalty: 0.05,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Classify performs the linear band scan: the first band whose closed
// interval contains totalScore wins. Bands must partition the score range
// with no gaps or overlaps (spec.md §8 invariant 7) — that property is a
// contract on Config.Bands, not enforced here.
func Classify(bands []Band, totalScore int) model.Classification {
	for _, b := range bands {
		if totalScore >= b.Min && totalScore <= b.Max {
			return b.Classification
		}
	}
	return model.Neutral
}

// actionFor derives the operator-facing action string directly from the
// classification, matching spec.md §9's normalization: side is LONG iff the
// classification sits on the positive half.
func actionFor(c model.Classification) string {
	if c == model.Neutral {
		return "HOLD"
	}
	if c.IsBullish() {
		return "LONG"
	}
	return "SHORT"
}

// Aggregate runs the deterministic pipeline of spec.md §4.2, step by step:
// sum directional scores (excluding DOM and ATR) -> clamp -> clamp DOM
// separately -> combine and clamp to totalCap -> classify -> count
// bullish/bearish -> compute confidence with its additive penalties.
//
// Aggregate is pure: given the same arguments it always
// returns the same Signal (spec.md §4.2's statelessness requirement); any
// last-signal-per-symbol cache is the caller's responsibility (spec.md §3).
func Aggregate(symbol string, indicators map[string]model.IndicatorResult, cfg Config, now time.Time) model.Signal {
	indicatorSum := 0
	bullish, bearish, directionalCount := 0, 0, 0

	for name, r := range indicators {
		if name == "DOM" || name == "ATR" {
			continue
		}
		indicatorSum += r.Score
		directionalCount++
		switch r.Signal {
		case model.SignalBuy:
			bullish++
		case model.SignalSell:
			bearish++
		}
	}
	indicatorSum = clamp(indicatorSum, -cfg.IndicatorCap, cfg.IndicatorCap)

	microSum := 0
	if dom, ok := indicators["DOM"]; ok {
		microSum = clamp(dom.Score, -cfg.MicroCap, cfg.MicroCap)
	}

	totalScore := clamp(indicatorSum+microSum, -cfg.TotalCap, cfg.TotalCap)
	classification := Classify(cfg.Bands, totalScore)

	confluence := 0.0
	if directionalCount > 0 {
		maxCount := bullish
		if bearish > maxCount {
			maxCount = bearish
		}
		confluence = float64(maxCount) / float64(directionalCount)
	}

	atrPercent := 0.0
	if atr, ok := indicators["ATR"]; ok {
		if v, ok := atr.Auxiliary["atrPercent"].(float64); ok {
			atrPercent = v
		}
	}

	confidence := 1.0
	if abs(totalScore) < cfg.LowScoreThreshold {
		confidence -= cfg.LowScorePenalty
	}
	switch {
	case atrPercent > cfg.ATRHighPercent:
		confidence -= cfg.ATRHighPenalty
	case atrPercent > cfg.ATRMediumPercent:
		confidence -= cfg.ATRMediumPenalty
	}
	conflictPairs := bullish
	if bearish < conflictPairs {
		conflictPairs = bearish
	}
	confidence -= cfg.ConflictPenaltyUnit * float64(conflictPairs)
	if confluence < cfg.LowConfluence {
		confidence -= cfg.LowConfluencePenalty
	}
	confidence = math.Max(0, math.Min(1, confidence))

	atrRegime := model.ATRRegimeMedium
	if atr, ok := indicators["ATR"]; ok {
		if r, ok := atr.Auxiliary["regime"].(model.ATRRegime); ok {
			atrRegime = r
		}
	}

	return model.Signal{
		Symbol:              symbol,
		TotalScore:          totalScore,
		IndicatorScore:       indicatorSum,
		MicrostructureScore: microSum,
		Classification:      classification,
		Action:              actionFor(classification),
		Confidence:          confidence,
		BullishCount:        bullish,
		BearishCount:        bearish,
		Confluence:          confluence,
		Indicators:          indicators,
		ATRRegime:           atrRegime,
		Timestamp:           now,
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
