package indicators

import (
	"math"
	"testing"
	"time"

	"screener/internal/model"
)

func buildCandles(closesSeq []float64) []model.Candle {
	out := make([]model.Candle, len(closesSeq))
	ts := time.Unix(0, 0)
	for i, c := range closesSeq {
		out[i] = model.Candle{
			Timestamp: ts.Add(time.Duration(i) * time.Minute),
			Open:      c, High: c * 1.001, Low: c * 0.999, Close: c,
			Volume: 1000,
		}
	}
	return out
}

func TestRSI_MonotonicUptrend_SellsOverbought(t *testing.T) {
	seq := make([]float64, 20)
	for i := range seq {
		seq[i] = 100 * math.Pow(1.02, float64(i))
	}
	res := RSI(buildCandles(seq), Defaults().RSI)
	if res.Signal != model.SignalSell {
		t.Fatalf("expected SELL signal on monotonic uptrend, got %v (score %d, value %.2f)", res.Signal, res.Score, res.Value)
	}
	if res.Score >= 0 {
		t.Fatalf("expected negative score on monotonic uptrend, got %d", res.Score)
	}
}

func TestRSI_MonotonicDowntrend_BuysOversold(t *testing.T) {
	seq := make([]float64, 20)
	for i := range seq {
		seq[i] = 100 * math.Pow(0.98, float64(i))
	}
	res := RSI(buildCandles(seq), Defaults().RSI)
	if res.Signal != model.SignalBuy {
		t.Fatalf("expected BUY signal on monotonic downtrend, got %v (score %d, value %.2f)", res.Signal, res.Score, res.Value)
	}
	if res.Score <= 0 {
		t.Fatalf("expected positive score on monotonic downtrend, got %d", res.Score)
	}
}

func TestIndicatorScoresWithinMaxScoreBounds(t *testing.T) {
	cfg := Defaults()
	seq := make([]float64, 120)
	for i := range seq {
		seq[i] = 100 + 10*math.Sin(float64(i)/4)
	}
	candles := buildCandles(seq)
	book := model.OrderBook{
		Bids: []model.PriceLevel{{Price: 99, Size: 500}},
		Asks: []model.PriceLevel{{Price: 101, Size: 100}},
	}
	results := Evaluate(candles, &book, cfg)
	for name, r := range results {
		if r.Score > r.MaxScore || r.Score < -r.MaxScore {
			t.Fatalf("%s: score %d exceeds maxScore %d", name, r.Score, r.MaxScore)
		}
	}
}

func TestDOM_EmptyBookIsNeutral(t *testing.T) {
	res := DOM(model.OrderBook{}, Defaults().DOM)
	if res.Score != 0 || res.Signal != model.SignalNeutral {
		t.Fatalf("expected neutral zero score for empty book, got score=%d signal=%v", res.Score, res.Signal)
	}
}

func TestInsufficientData_ReturnsNeutral(t *testing.T) {
	res := RSI(buildCandles([]float64{100, 101}), Defaults().RSI)
	if res.Score != 0 || res.Signal != model.SignalNeutral {
		t.Fatalf("expected neutral result below minimum data length, got %+v", res)
	}
}

func TestATR_DoesNotProduceDirectionalScore(t *testing.T) {
	seq := make([]float64, 30)
	for i := range seq {
		seq[i] = 100 + float64(i)
	}
	res := ATR(buildCandles(seq), Defaults().ATR)
	if res.Score != 0 {
		t.Fatalf("ATR must never contribute a directional score, got %d", res.Score)
	}
	if res.Signal != model.SignalNeutral {
		t.Fatalf("ATR signal must stay NEUTRAL, got %v", res.Signal)
	}
}
