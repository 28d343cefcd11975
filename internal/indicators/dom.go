package indicators

import (
	"math"

	"screener/internal/model"
)

// DOM reads order-book depth imbalance: (bidVol-askVol)/total. Bands at
// +-0.1 (half weight) and +-0.3 (full weight), matching the spread used by
// CMF/CCI elsewhere in this catalog. Empty books score 0, signal NEUTRAL.
func DOM(book model.OrderBook, cfg DOMConfig) model.IndicatorResult {
	bidVol, askVol := 0.0, 0.0
	for _, l := range book.Bids {
		bidVol += l.Size
	}
	for _, l := range book.Asks {
		askVol += l.Size
	}
	total := bidVol + askVol
	if total == 0 {
		return neutral("DOM", cfg.MaxScore)
	}
	imbalance := (bidVol - askVol) / total

	score := 0
	switch {
	case math.Abs(imbalance) >= cfg.WideBand:
		score = roundScore(float64(cfg.Weight) * sign(imbalance))
	case math.Abs(imbalance) >= cfg.NarrowBand:
		score = roundScore(float64(cfg.Weight) * 0.5 * sign(imbalance))
	}
	score = clampScore(score, cfg.MaxScore)
	return model.IndicatorResult{
		Name: "DOM", Value: imbalance, Score: score, MaxScore: cfg.MaxScore,
		Signal: signalFromScore(score),
	}
}
