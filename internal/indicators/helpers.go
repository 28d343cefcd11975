package indicators

import (
	"math"

	"screener/internal/model"
)

func closes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// sma averages the last period values of series. Grounded on the teacher's
// CalculateSMA (internal/strategy/indicators.go): last-window average, 0 if
// insufficient data.
func sma(series []float64, period int) float64 {
	if len(series) < period || period <= 0 {
		return 0
	}
	sum := 0.0
	start := len(series) - period
	for i := start; i < len(series); i++ {
		sum += series[i]
	}
	return sum / float64(period)
}

// emaSeries returns the full EMA series seeded by the SMA of the first
// period values, matching the teacher's CalculateEMA seed-then-roll idiom,
// but returning every intermediate value (needed for a true MACD signal
// line, which is itself an EMA of the MACD line's history — the teacher's
// own CalculateMACD skips this and approximates signal = macd*0.8).
func emaSeries(series []float64, period int) []float64 {
	if len(series) < period || period <= 0 {
		return nil
	}
	out := make([]float64, 0, len(series)-period+1)
	mult := 2.0 / float64(period+1)
	ema := sma(series[:period], period)
	out = append(out, ema)
	for i := period; i < len(series); i++ {
		ema = series[i]*mult + ema*(1-mult)
		out = append(out, ema)
	}
	return out
}

func ema(series []float64, period int) float64 {
	s := emaSeries(series, period)
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

func stdDev(series []float64, period int) float64 {
	if len(series) < period || period <= 0 {
		return 0
	}
	mean := sma(series, period)
	sumSq := 0.0
	start := len(series) - period
	for i := start; i < len(series); i++ {
		d := series[i] - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(period))
}

// trueRangeSeries computes the classic true-range series from candles.
func trueRangeSeries(candles []model.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		h, l, pc := candles[i].High, candles[i].Low, candles[i-1].Close
		tr := math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc)))
		out = append(out, tr)
	}
	return out
}

// roundScore rounds to the nearest integer (ties away from zero) per the
// spec's "scores are rounded to nearest integer at the indicator boundary."
func roundScore(x float64) int {
	if x >= 0 {
		return int(math.Floor(x + 0.5))
	}
	return -int(math.Floor(-x + 0.5))
}

// clampScore bounds a raw indicator score to [-max, +max], the invariant
// every indicator must satisfy regardless of how large an intermediate
// multiplier (e.g. Williams %R's *1.25) pushed it.
func clampScore(score, max int) int {
	if score > max {
		return max
	}
	if score < -max {
		return -max
	}
	return score
}

func signalFromScore(score int) model.IndicatorSignal {
	switch {
	case score > 0:
		return model.SignalBuy
	case score < 0:
		return model.SignalSell
	default:
		return model.SignalNeutral
	}
}

func neutral(name string, maxScore int) model.IndicatorResult {
	return model.IndicatorResult{Name: name, Score: 0, MaxScore: maxScore, Signal: model.SignalNeutral}
}
