package signal

import (
	"testing"
	"time"

	"screener/internal/model"
)

func ind(score int) model.IndicatorResult {
	sig := model.SignalNeutral
	if score > 0 {
		sig = model.SignalBuy
	} else if score < 0 {
		sig = model.SignalSell
	}
	return model.IndicatorResult{Score: score, Signal: sig}
}

func TestClassify_Boundaries(t *testing.T) {
	bands := DefaultBands()
	cases := []struct {
		score int
		want  model.Classification
	}{
		{130, model.ExtremeBuy},
		{129, model.StrongBuy},
		{-39, model.Neutral},
		{-40, model.SellWeak},
	}
	for _, c := range cases {
		got := Classify(bands, c.score)
		if got != c.want {
			t.Errorf("Classify(%d) = %v, want %v", c.score, got, c.want)
		}
	}
}

func TestClassify_BandsPartitionRangeWithoutGapsOrOverlaps(t *testing.T) {
	bands := DefaultBands()
	for s := -220; s <= 220; s++ {
		matches := 0
		for _, b := range bands {
			if s >= b.Min && s <= b.Max {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("score %d matched %d bands, want exactly 1", s, matches)
		}
	}
}

func TestAggregate_TotalScoreWithinBounds(t *testing.T) {
	indicators := map[string]model.IndicatorResult{
		"RSI":        ind(34),
		"MACD":       ind(36),
		"Bollinger":  ind(40),
		"WilliamsR":  ind(50),
		"Stochastic": ind(36),
		"EMATrend":   ind(38),
		"DOM":        ind(30),
		"ATR":        {Score: 0, Signal: model.SignalNeutral},
	}
	sig := Aggregate("BTCUSDT", indicators, DefaultConfig(), time.Now())
	if sig.TotalScore < -220 || sig.TotalScore > 220 {
		t.Fatalf("totalScore %d out of bounds", sig.TotalScore)
	}
	if sig.Confidence < 0 || sig.Confidence > 1 {
		t.Fatalf("confidence %f out of [0,1]", sig.Confidence)
	}
}

func TestAggregate_ATRExcludedFromDirectionalSum(t *testing.T) {
	withoutATR := map[string]model.IndicatorResult{"RSI": ind(34)}
	withATR := map[string]model.IndicatorResult{"RSI": ind(34), "ATR": ind(999)}
	a := Aggregate("X", withoutATR, DefaultConfig(), time.Now())
	b := Aggregate("X", withATR, DefaultConfig(), time.Now())
	if a.TotalScore != b.TotalScore {
		t.Fatalf("ATR must not affect totalScore: %d vs %d", a.TotalScore, b.TotalScore)
	}
}

func TestAggregate_IdempotentClassifyOfRangeMid(t *testing.T) {
	bands := DefaultBands()
	for _, b := range bands {
		mid := (b.Min + b.Max) / 2
		if got := Classify(bands, mid); got != b.Classification {
			t.Fatalf("rangeMid %d of band %v classified as %v", mid, b.Classification, got)
		}
	}
}
