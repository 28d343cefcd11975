package indicators

import "screener/internal/model"

// Evaluate runs the full 14-indicator catalog over candles (and, if book is
// non-nil, DOM) and returns a result keyed by indicator name. This is the
// single entry point internal/signal and internal/screener call — callers
// never invoke individual indicator functions directly, matching the
// teacher's pattern of a strategy evaluator fanning out over a fixed set of
// calculators (internal/scanner/evaluator.go).
func Evaluate(candles []model.Candle, book *model.OrderBook, cfg Config) map[string]model.IndicatorResult {
	results := make(map[string]model.IndicatorResult, 14)
	results["RSI"] = RSI(candles, cfg.RSI)
	results["StochRSI"] = StochRSI(candles, cfg.StochRSI)
	results["MACD"] = MACD(candles, cfg.MACD)
	results["Bollinger"] = Bollinger(candles, cfg.Bollinger)
	results["WilliamsR"] = WilliamsR(candles, cfg.WilliamsR)
	results["Stochastic"] = Stochastic(candles, cfg.Stochastic)
	results["EMATrend"] = EMATrend(candles, cfg.EMATrend)
	results["AwesomeOscillator"] = AwesomeOscillator(candles, cfg.AwesomeOsc)
	results["KDJ"] = KDJ(candles, cfg.KDJ)
	results["OBV"] = OBV(candles, cfg.OBV)
	results["CMF"] = CMF(candles, cfg.CMF)
	results["ATR"] = ATR(candles, cfg.ATR)
	results["CCI"] = CCI(candles, cfg.CCI)
	if book != nil {
		results["DOM"] = DOM(*book, cfg.DOM)
	} else {
		results["DOM"] = neutral("DOM", cfg.DOM.MaxScore)
	}
	return results
}
