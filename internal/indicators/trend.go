package indicators

import (
	"math"

	"screener/internal/model"
)

// Bollinger: a bounce off the lower band with an up-tick awards +weight; a
// close below the lower band with no up-tick awards +weight/2 (mirrored for
// the upper band); walking the band from inside awards +-weight*0.25.
func Bollinger(candles []model.Candle, cfg BollingerConfig) model.IndicatorResult {
	c := closes(candles)
	if len(c) < cfg.Period+2 {
		return neutral("Bollinger", cfg.MaxScore)
	}
	mid := sma(c, cfg.Period)
	dev := stdDev(c, cfg.Period)
	upper := mid + cfg.StdDev*dev
	lower := mid - cfg.StdDev*dev

	prevMid := sma(c[:len(c)-1], cfg.Period)
	prevDev := stdDev(c[:len(c)-1], cfg.Period)
	prevUpper := prevMid + cfg.StdDev*prevDev
	prevLower := prevMid - cfg.StdDev*prevDev

	curr := c[len(c)-1]
	prev := c[len(c)-2]

	belowLower := curr <= lower
	wasBelowLower := prev <= prevLower
	aboveUpper := curr >= upper
	wasAboveUpper := prev >= prevUpper
	tickingUp := curr > prev
	tickingDown := curr < prev

	score := 0
	switch {
	case wasBelowLower && !belowLower && tickingUp:
		score = cfg.Weight
	case belowLower:
		score = roundScore(float64(cfg.Weight) / 2)
	case wasAboveUpper && !aboveUpper && tickingDown:
		score = -cfg.Weight
	case aboveUpper:
		score = -roundScore(float64(cfg.Weight) / 2)
	case !belowLower && !aboveUpper:
		// walking inside the bands: direction of drift relative to mid.
		if curr > mid {
			score = roundScore(float64(cfg.Weight) * 0.25)
		} else if curr < mid {
			score = -roundScore(float64(cfg.Weight) * 0.25)
		}
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "Bollinger", Value: curr, Score: score, MaxScore: cfg.MaxScore,
		Signal:    signalFromScore(score),
		Auxiliary: map[string]interface{}{"upper": upper, "lower": lower, "mid": mid},
	}
}

// EMATrend: a golden/death cross of the fast/mid EMAs awards +-weight*1.05;
// full three-line alignment (fast/mid/slow ordered monotonically) awards
// +-weight*0.79; price sitting above/below the slow EMA alone awards
// +-weight*0.26.
func EMATrend(candles []model.Candle, cfg EMATrendConfig) model.IndicatorResult {
	c := closes(candles)
	if len(c) < cfg.Slow+2 {
		return neutral("EMATrend", cfg.MaxScore)
	}
	fastSeries := emaSeries(c, cfg.Fast)
	midSeries := emaSeries(c, cfg.Mid)
	slowSeries := emaSeries(c, cfg.Slow)

	fast := fastSeries[len(fastSeries)-1]
	mid := midSeries[len(midSeries)-1]
	slow := slowSeries[len(slowSeries)-1]
	prevFast := fastSeries[len(fastSeries)-2]
	prevMid := midSeries[len(midSeries)-2]

	goldenCross := prevFast <= prevMid && fast > mid
	deathCross := prevFast >= prevMid && fast < mid
	bullAligned := fast > mid && mid > slow
	bearAligned := fast < mid && mid < slow
	price := c[len(c)-1]

	score := 0
	switch {
	case goldenCross:
		score = roundScore(float64(cfg.Weight) * 1.05)
	case deathCross:
		score = -roundScore(float64(cfg.Weight) * 1.05)
	case bullAligned:
		score = roundScore(float64(cfg.Weight) * 0.79)
	case bearAligned:
		score = -roundScore(float64(cfg.Weight) * 0.79)
	case price > slow:
		score = roundScore(float64(cfg.Weight) * 0.26)
	case price < slow:
		score = -roundScore(float64(cfg.Weight) * 0.26)
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "EMATrend", Value: fast, Score: score, MaxScore: cfg.MaxScore,
		Signal:    signalFromScore(score),
		Auxiliary: map[string]interface{}{"fast": fast, "mid": mid, "slow": slow},
	}
}

// AwesomeOscillator: a zero-line cross awards +-weight; a saucer reversal
// (two same-sign bars turning then rising/falling back toward zero) awards
// +-weight*0.71; sitting same-sign with no pattern awards +-weight*0.29.
func AwesomeOscillator(candles []model.Candle, cfg AwesomeOscConfig) model.IndicatorResult {
	if len(candles) < cfg.Slow+3 {
		return neutral("AwesomeOscillator", cfg.MaxScore)
	}
	median := make([]float64, len(candles))
	for i, k := range candles {
		median[i] = (k.High + k.Low) / 2
	}
	fastSeries := smaSeries(median, cfg.Fast)
	slowSeries := smaSeries(median, cfg.Slow)
	offset := len(fastSeries) - len(slowSeries)
	ao := make([]float64, len(slowSeries))
	for i := range slowSeries {
		ao[i] = fastSeries[i+offset] - slowSeries[i]
	}
	if len(ao) < 3 {
		return neutral("AwesomeOscillator", cfg.MaxScore)
	}
	curr := ao[len(ao)-1]
	prev := ao[len(ao)-2]
	prev2 := ao[len(ao)-3]

	zeroCrossUp := prev <= 0 && curr > 0
	zeroCrossDown := prev >= 0 && curr < 0
	saucerUp := curr > 0 && prev2 > prev && curr > prev
	saucerDown := curr < 0 && prev2 < prev && curr < prev

	score := 0
	switch {
	case zeroCrossUp:
		score = cfg.Weight
	case zeroCrossDown:
		score = -cfg.Weight
	case saucerUp:
		score = roundScore(float64(cfg.Weight) * 0.71)
	case saucerDown:
		score = -roundScore(float64(cfg.Weight) * 0.71)
	case curr > 0:
		score = roundScore(float64(cfg.Weight) * 0.29)
	case curr < 0:
		score = -roundScore(float64(cfg.Weight) * 0.29)
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "AwesomeOscillator", Value: curr, Score: score, MaxScore: cfg.MaxScore,
		Signal: signalFromScore(score),
	}
}

// ATR is not directional: it returns a volatility regime (LOW/MEDIUM/HIGH)
// based on ATR as a percent of the current close, and never contributes to
// the aggregator's directional sum (spec.md's explicit correction — see
// SPEC_FULL.md's Resolved Open Questions).
func ATR(candles []model.Candle, cfg ATRConfig) model.IndicatorResult {
	if len(candles) < cfg.Period+1 {
		return neutral("ATR", cfg.MaxScore)
	}
	tr := trueRangeSeries(candles)
	atrVal := sma(tr, cfg.Period)
	price := candles[len(candles)-1].Close
	if price == 0 {
		return neutral("ATR", cfg.MaxScore)
	}
	pct := atrVal / price * 100

	regime := model.ATRRegimeMedium
	switch {
	case pct < cfg.LowThreshold:
		regime = model.ATRRegimeLow
	case pct > cfg.HighThreshold:
		regime = model.ATRRegimeHigh
	}
	return model.IndicatorResult{
		Name: "ATR", Value: atrVal, Score: 0, MaxScore: cfg.MaxScore,
		Signal:    model.SignalNeutral,
		Auxiliary: map[string]interface{}{"regime": regime, "atrPercent": math.Round(pct*100) / 100},
	}
}
