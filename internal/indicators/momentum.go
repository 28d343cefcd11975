package indicators

import (
	"math"

	"screener/internal/model"
)

// rsiValue is the RSI over the last period closes, using simple averages of
// the gains and losses (no Wilder smoothing).
func rsiValue(c []float64, period int) float64 {
	if len(c) < period+1 {
		return 50
	}
	gains, losses := 0.0, 0.0
	start := len(c) - period
	for i := start; i < len(c); i++ {
		change := c[i] - c[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// rsiSeries computes a rolling RSI value ending at every index from period
// onward — needed by StochRSI, which is a stochastic oscillator applied to
// RSI's own history rather than to price.
func rsiSeries(c []float64, period int) []float64 {
	if len(c) < period+1 {
		return nil
	}
	out := make([]float64, 0, len(c)-period)
	for end := period + 1; end <= len(c); end++ {
		out = append(out, rsiValue(c[:end], period))
	}
	return out
}

// RSI implements spec.md §4.1's RSI scoring rule. maxScore 34, period 14,
// oversold 30, overbought 70 by default.
func RSI(candles []model.Candle, cfg RSIConfig) model.IndicatorResult {
	c := closes(candles)
	if len(c) < cfg.Period+2 {
		return neutral("RSI", cfg.MaxScore)
	}
	curr := rsiValue(c, cfg.Period)
	prev := rsiValue(c[:len(c)-1], cfg.Period)

	score := 0
	switch {
	case curr <= cfg.Oversold:
		score = roundScore(float64(cfg.Weight) * (1 + (cfg.Oversold-curr)/cfg.Oversold))
		if curr > prev {
			score += 5
		}
	case curr >= cfg.Overbought:
		score = -roundScore(float64(cfg.Weight) * (1 + (curr-cfg.Overbought)/(100-cfg.Overbought)))
		if curr < prev {
			score -= 5
		}
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "RSI", Value: curr, Score: score, MaxScore: cfg.MaxScore,
		Signal: signalFromScore(score),
	}
}

// StochRSI implements the stochastic-of-RSI oscillator. K/D cross inside an
// extreme zone awards +-weight; a plain extreme-zone read (no cross) awards
// +-weight/2.
func StochRSI(candles []model.Candle, cfg StochRSIConfig) model.IndicatorResult {
	c := closes(candles)
	rsis := rsiSeries(c, cfg.RSIPeriod)
	if len(rsis) < cfg.StochPeriod+cfg.K+cfg.D {
		return neutral("StochRSI", cfg.MaxScore)
	}

	stochK := make([]float64, 0, len(rsis)-cfg.StochPeriod+1)
	for end := cfg.StochPeriod; end <= len(rsis); end++ {
		window := rsis[end-cfg.StochPeriod : end]
		lo, hi := minMax(window)
		k := 50.0
		if hi > lo {
			k = (rsis[end-1] - lo) / (hi - lo) * 100
		}
		stochK = append(stochK, k)
	}
	if len(stochK) < cfg.K+cfg.D {
		return neutral("StochRSI", cfg.MaxScore)
	}
	kSmoothed := smaSeries(stochK, cfg.K)
	dSmoothed := smaSeries(kSmoothed, cfg.D)
	if len(kSmoothed) < 2 || len(dSmoothed) < 2 {
		return neutral("StochRSI", cfg.MaxScore)
	}

	k := kSmoothed[len(kSmoothed)-1]
	prevK := kSmoothed[len(kSmoothed)-2]
	d := dSmoothed[len(dSmoothed)-1]
	prevD := dSmoothed[len(dSmoothed)-2]

	crossedUp := prevK <= prevD && k > d
	crossedDown := prevK >= prevD && k < d

	score := 0
	switch {
	case k <= cfg.Oversold && crossedUp:
		score = cfg.Weight
	case k <= cfg.Oversold:
		score = roundScore(float64(cfg.Weight) / 2)
	case k >= cfg.Overbought && crossedDown:
		score = -cfg.Weight
	case k >= cfg.Overbought:
		score = -roundScore(float64(cfg.Weight) / 2)
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "StochRSI", Value: k, Score: score, MaxScore: cfg.MaxScore,
		Signal:    signalFromScore(score),
		Auxiliary: map[string]interface{}{"d": d},
	}
}

func minMax(series []float64) (float64, float64) {
	lo, hi := series[0], series[0]
	for _, v := range series {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func smaSeries(series []float64, period int) []float64 {
	if len(series) < period || period <= 0 {
		return nil
	}
	out := make([]float64, 0, len(series)-period+1)
	for end := period; end <= len(series); end++ {
		out = append(out, sma(series[:end], period))
	}
	return out
}

// MACD implements the ordered-check MACD rule: accelerating histogram
// (growing, same sign) awards +-weight; decelerating +-weight*0.67; a fresh
// sign cross +-weight*0.83. Unlike the teacher's CalculateMACD, the signal
// line is a true EMA of the MACD line's own history, not macd*0.8.
func MACD(candles []model.Candle, cfg MACDConfig) model.IndicatorResult {
	c := closes(candles)
	if len(c) < cfg.Slow+cfg.Signal+2 {
		return neutral("MACD", cfg.MaxScore)
	}
	fastSeries := emaSeries(c, cfg.Fast)
	slowSeries := emaSeries(c, cfg.Slow)
	// Align series: fastSeries is longer (shorter period starts earlier).
	offset := len(fastSeries) - len(slowSeries)
	macdLine := make([]float64, len(slowSeries))
	for i := range slowSeries {
		macdLine[i] = fastSeries[i+offset] - slowSeries[i]
	}
	if len(macdLine) < cfg.Signal+2 {
		return neutral("MACD", cfg.MaxScore)
	}
	signalSeries := emaSeries(macdLine, cfg.Signal)
	if len(signalSeries) < 2 {
		return neutral("MACD", cfg.MaxScore)
	}
	histOffset := len(macdLine) - len(signalSeries)
	hist := make([]float64, len(signalSeries))
	for i := range signalSeries {
		hist[i] = macdLine[i+histOffset] - signalSeries[i]
	}

	curr := hist[len(hist)-1]
	prev := hist[len(hist)-2]
	macdVal := macdLine[len(macdLine)-1]
	signalVal := signalSeries[len(signalSeries)-1]
	prevMacd := macdLine[len(macdLine)-2]
	prevSignal := signalSeries[len(signalSeries)-2]

	sameSign := (curr >= 0) == (prev >= 0)
	accelerating := sameSign && math.Abs(curr) > math.Abs(prev)
	decelerating := sameSign && math.Abs(curr) < math.Abs(prev)
	freshCross := (prevMacd <= prevSignal && macdVal > signalVal) || (prevMacd >= prevSignal && macdVal < signalVal)

	sign := 1.0
	if curr < 0 {
		sign = -1.0
	}

	score := 0
	switch {
	case freshCross:
		dir := 1.0
		if macdVal < signalVal {
			dir = -1.0
		}
		score = roundScore(float64(cfg.Weight) * 0.83 * dir)
	case accelerating:
		score = roundScore(float64(cfg.Weight) * sign)
	case decelerating:
		score = roundScore(float64(cfg.Weight) * 0.67 * sign)
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "MACD", Value: macdVal, Score: score, MaxScore: cfg.MaxScore,
		Signal:    signalFromScore(score),
		Auxiliary: map[string]interface{}{"signal": signalVal, "histogram": curr},
	}
}

// WilliamsR: turning up from <=-80 awards weight*1.25; sitting at-or-below
// awards weight. Mirrored at the overbought side.
func WilliamsR(candles []model.Candle, cfg WilliamsRConfig) model.IndicatorResult {
	if len(candles) < cfg.Period+2 {
		return neutral("WilliamsR", cfg.MaxScore)
	}
	wr := func(window []model.Candle) float64 {
		hi, lo := window[0].High, window[0].Low
		for _, k := range window {
			if k.High > hi {
				hi = k.High
			}
			if k.Low < lo {
				lo = k.Low
			}
		}
		if hi == lo {
			return -50
		}
		return (hi - window[len(window)-1].Close) / (hi - lo) * -100
	}
	curr := wr(candles[len(candles)-cfg.Period:])
	prev := wr(candles[len(candles)-cfg.Period-1 : len(candles)-1])

	score := 0
	switch {
	case curr <= cfg.Oversold && curr > prev:
		score = roundScore(float64(cfg.Weight) * 1.25)
	case curr <= cfg.Oversold:
		score = cfg.Weight
	case curr >= cfg.Overbought && curr < prev:
		score = -roundScore(float64(cfg.Weight) * 1.25)
	case curr >= cfg.Overbought:
		score = -cfg.Weight
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "WilliamsR", Value: curr, Score: score, MaxScore: cfg.MaxScore,
		Signal: signalFromScore(score),
	}
}

// Stochastic follows the same pattern as StochRSI (cross-in-zone vs
// zone-only) but over raw price highs/lows/closes, base weight 18 and
// moderate-zone fraction 0.56 per spec.
func Stochastic(candles []model.Candle, cfg StochasticConfig) model.IndicatorResult {
	if len(candles) < cfg.K+cfg.D+1 {
		return neutral("Stochastic", cfg.MaxScore)
	}
	rawK := make([]float64, 0, len(candles)-cfg.K+1)
	for end := cfg.K; end <= len(candles); end++ {
		window := candles[end-cfg.K : end]
		hi, lo := window[0].High, window[0].Low
		for _, k := range window {
			if k.High > hi {
				hi = k.High
			}
			if k.Low < lo {
				lo = k.Low
			}
		}
		v := 50.0
		if hi > lo {
			v = (window[len(window)-1].Close - lo) / (hi - lo) * 100
		}
		rawK = append(rawK, v)
	}
	dSeries := smaSeries(rawK, cfg.D)
	if len(dSeries) < 2 || len(rawK) < 2 {
		return neutral("Stochastic", cfg.MaxScore)
	}
	k := rawK[len(rawK)-1]
	prevK := rawK[len(rawK)-2]
	d := dSeries[len(dSeries)-1]
	prevD := dSeries[len(dSeries)-2]

	crossedUp := prevK <= prevD && k > d
	crossedDown := prevK >= prevD && k < d

	score := 0
	switch {
	case k <= cfg.Oversold && crossedUp:
		score = cfg.Weight
	case k <= cfg.Oversold:
		score = roundScore(float64(cfg.Weight) * 0.56)
	case k >= cfg.Overbought && crossedDown:
		score = -cfg.Weight
	case k >= cfg.Overbought:
		score = -roundScore(float64(cfg.Weight) * 0.56)
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "Stochastic", Value: k, Score: score, MaxScore: cfg.MaxScore,
		Signal:    signalFromScore(score),
		Auxiliary: map[string]interface{}{"d": d},
	}
}

// KDJ derives J = 3K - 2D from the same raw stochastic used by Stochastic,
// smoothed by SmoothK/SmoothD. J<0 or J>100 scores +-weight; a crossover
// while in the extreme zone +-weight*0.88; sitting in the extreme zone
// without a cross +-weight*0.59.
func KDJ(candles []model.Candle, cfg KDJConfig) model.IndicatorResult {
	if len(candles) < cfg.Period+cfg.SmoothK+cfg.SmoothD+1 {
		return neutral("KDJ", cfg.MaxScore)
	}
	rawK := make([]float64, 0, len(candles)-cfg.Period+1)
	for end := cfg.Period; end <= len(candles); end++ {
		window := candles[end-cfg.Period : end]
		hi, lo := window[0].High, window[0].Low
		for _, k := range window {
			if k.High > hi {
				hi = k.High
			}
			if k.Low < lo {
				lo = k.Low
			}
		}
		v := 50.0
		if hi > lo {
			v = (window[len(window)-1].Close - lo) / (hi - lo) * 100
		}
		rawK = append(rawK, v)
	}
	kSeries := smaSeries(rawK, cfg.SmoothK)
	dSeries := smaSeries(kSeries, cfg.SmoothD)
	if len(kSeries) < 2 || len(dSeries) < 2 {
		return neutral("KDJ", cfg.MaxScore)
	}
	offset := len(kSeries) - len(dSeries)
	j := 3*kSeries[len(kSeries)-1] - 2*dSeries[len(dSeries)-1]
	prevJ := 3*kSeries[offset+len(dSeries)-2] - 2*dSeries[len(dSeries)-2]

	extreme := j < 0 || j > 100
	prevExtreme := prevJ < 0 || prevJ > 100
	crossed := extreme != prevExtreme

	score := 0
	switch {
	case j < 0:
		if crossed {
			score = roundScore(float64(cfg.Weight) * 0.88)
		} else {
			score = cfg.Weight
		}
	case j > 100:
		if crossed {
			score = -roundScore(float64(cfg.Weight) * 0.88)
		} else {
			score = -cfg.Weight
		}
	case extreme:
		if j >= 50 {
			score = roundScore(float64(cfg.Weight) * 0.59)
		} else {
			score = -roundScore(float64(cfg.Weight) * 0.59)
		}
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "KDJ", Value: j, Score: score, MaxScore: cfg.MaxScore,
		Signal: signalFromScore(score),
	}
}

// CCI: |CCI|>200 awards +-weight; |CCI|>100 awards +-weight*0.625; crossing
// the zero line adds an additive +-5 bonus.
func CCI(candles []model.Candle, cfg CCIConfig) model.IndicatorResult {
	if len(candles) < cfg.Period+1 {
		return neutral("CCI", cfg.MaxScore)
	}
	typicalPrice := func(k model.Candle) float64 { return (k.High + k.Low + k.Close) / 3 }
	cciAt := func(end int) float64 {
		window := candles[end-cfg.Period : end]
		sum := 0.0
		for _, k := range window {
			sum += typicalPrice(k)
		}
		mean := sum / float64(cfg.Period)
		meanDev := 0.0
		for _, k := range window {
			meanDev += math.Abs(typicalPrice(k) - mean)
		}
		meanDev /= float64(cfg.Period)
		if meanDev == 0 {
			return 0
		}
		return (typicalPrice(window[len(window)-1]) - mean) / (0.015 * meanDev)
	}
	curr := cciAt(len(candles))
	prev := cciAt(len(candles) - 1)

	score := 0
	switch {
	case math.Abs(curr) > 200:
		score = roundScore(float64(cfg.Weight) * sign(curr))
	case math.Abs(curr) > 100:
		score = roundScore(float64(cfg.Weight) * 0.625 * sign(curr))
	}
	if (prev <= 0 && curr > 0) || (prev >= 0 && curr < 0) {
		score += roundScore(5 * sign(curr))
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "CCI", Value: curr, Score: score, MaxScore: cfg.MaxScore,
		Signal: signalFromScore(score),
	}
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
