package indicators

import (
	"math"

	"screener/internal/model"
)

func obvSeries(candles []model.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			out[i] = out[i-1] + candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			out[i] = out[i-1] - candles[i].Volume
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// OBV: directional confirmation (price and OBV move the same direction,
// and OBV sits on the corresponding side of its own SMA) awards +-weight;
// a divergence (price and OBV disagree) awards +-weight*0.56.
func OBV(candles []model.Candle, cfg OBVConfig) model.IndicatorResult {
	if len(candles) < cfg.SMAWindow+2 {
		return neutral("OBV", cfg.MaxScore)
	}
	obv := obvSeries(candles)
	obvSMA := sma(obv, cfg.SMAWindow)
	curr := obv[len(obv)-1]
	prev := obv[len(obv)-2]
	priceUp := candles[len(candles)-1].Close > candles[len(candles)-2].Close
	priceDown := candles[len(candles)-1].Close < candles[len(candles)-2].Close
	obvUp := curr > prev

	confirmedBull := priceUp && obvUp && curr > obvSMA
	confirmedBear := priceDown && !obvUp && curr < obvSMA
	divergeBull := priceDown && obvUp
	divergeBear := priceUp && !obvUp

	score := 0
	switch {
	case confirmedBull:
		score = cfg.Weight
	case confirmedBear:
		score = -cfg.Weight
	case divergeBull:
		score = roundScore(float64(cfg.Weight) * 0.56)
	case divergeBear:
		score = -roundScore(float64(cfg.Weight) * 0.56)
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "OBV", Value: curr, Score: score, MaxScore: cfg.MaxScore,
		Signal:    signalFromScore(score),
		Auxiliary: map[string]interface{}{"sma": obvSMA},
	}
}

// CMF: |CMF| > 0.1 awards +-weight; any same-sign reading awards
// +-weight*0.53; crossing the zero line adds an additive +-5 bonus.
func CMF(candles []model.Candle, cfg CMFConfig) model.IndicatorResult {
	if len(candles) < cfg.Period+1 {
		return neutral("CMF", cfg.MaxScore)
	}
	cmfAt := func(end int) float64 {
		window := candles[end-cfg.Period : end]
		mfVolSum, volSum := 0.0, 0.0
		for _, k := range window {
			if k.High == k.Low {
				continue
			}
			mfMultiplier := ((k.Close - k.Low) - (k.High - k.Close)) / (k.High - k.Low)
			mfVolSum += mfMultiplier * k.Volume
			volSum += k.Volume
		}
		if volSum == 0 {
			return 0
		}
		return mfVolSum / volSum
	}
	curr := cmfAt(len(candles))
	prev := cmfAt(len(candles) - 1)

	score := 0
	switch {
	case math.Abs(curr) > 0.1:
		score = roundScore(float64(cfg.Weight) * sign(curr))
	default:
		if curr != 0 {
			score = roundScore(float64(cfg.Weight) * 0.53 * sign(curr))
		}
	}
	if (prev <= 0 && curr > 0) || (prev >= 0 && curr < 0) {
		score += roundScore(5 * sign(curr))
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "CMF", Value: curr, Score: score, MaxScore: cfg.MaxScore,
		Signal: signalFromScore(score),
	}
}
