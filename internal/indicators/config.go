// Package indicators implements the fixed catalog of 14 indicator functions.
// Each is a pure function over a candle sequence (and, for DOM, an order
// book) returning a model.IndicatorResult. This mirrors the teacher's
// internal/strategy/indicators.go convention of one function per indicator
// operating on a slice of bars, but replaces its approximated math (a crude
// MACD signal line, a crude stochastic %D) with exact, reproducible
// formulas, and adds the scoring layer the teacher never had.
package indicators

// Config groups the weight/maxScore/tunable defaults for every indicator.
// The loaded configuration (config.Config) has no indicator section, so
// none of these fields is read from the config file or the environment;
// the binary passes Defaults() unchanged. The zero value of each sub-config
// is never used directly — Defaults() must seed it first.
type Config struct {
	RSI        RSIConfig
	StochRSI   StochRSIConfig
	MACD       MACDConfig
	Bollinger  BollingerConfig
	WilliamsR  WilliamsRConfig
	Stochastic StochasticConfig
	EMATrend   EMATrendConfig
	AwesomeOsc AwesomeOscConfig
	KDJ        KDJConfig
	OBV        OBVConfig
	CMF        CMFConfig
	ATR        ATRConfig
	CCI        CCIConfig
	DOM        DOMConfig
}

type RSIConfig struct {
	Period      int
	Oversold    float64
	Overbought  float64
	Weight      int
	MaxScore    int
}

type StochRSIConfig struct {
	RSIPeriod   int
	StochPeriod int
	K           int
	D           int
	Oversold    float64
	Overbought  float64
	Weight      int
	MaxScore    int
}

type MACDConfig struct {
	Fast     int
	Slow     int
	Signal   int
	Weight   int
	MaxScore int
}

type BollingerConfig struct {
	Period   int
	StdDev   float64
	Weight   int
	MaxScore int
}

type WilliamsRConfig struct {
	Period     int
	Oversold   float64 // e.g. -80
	Overbought float64 // e.g. -20
	Weight     int
	MaxScore   int
}

type StochasticConfig struct {
	K          int
	D          int
	Oversold   float64
	Overbought float64
	Weight     int
	MaxScore   int
}

type EMATrendConfig struct {
	Fast     int
	Mid      int
	Slow     int
	Weight   int
	MaxScore int
}

type AwesomeOscConfig struct {
	Fast     int
	Slow     int
	Weight   int
	MaxScore int
}

type KDJConfig struct {
	Period   int
	SmoothK  int
	SmoothD  int
	Weight   int
	MaxScore int
}

type OBVConfig struct {
	SMAWindow int
	Weight    int
	MaxScore  int
}

type CMFConfig struct {
	Period   int
	Weight   int
	MaxScore int
}

type ATRConfig struct {
	Period        int
	LowThreshold  float64 // percent of close, e.g. 2.0
	HighThreshold float64 // e.g. 4.0
	MaxScore      int
}

type CCIConfig struct {
	Period   int
	Weight   int
	MaxScore int
}

type DOMConfig struct {
	NarrowBand float64 // e.g. 0.1
	WideBand   float64 // e.g. 0.3
	Weight     int
	MaxScore   int
}

// Defaults returns the spec's default indicator configuration. Where the
// spec states a "weight" explicitly (Stochastic: 18), that value is used;
// elsewhere weight defaults to maxScore, matching "a primary condition
// awards the full weight" read together with the table's maxScore column.
func Defaults() Config {
	return Config{
		RSI: RSIConfig{Period: 14, Oversold: 30, Overbought: 70, Weight: 34, MaxScore: 34},
		StochRSI: StochRSIConfig{
			RSIPeriod: 14, StochPeriod: 14, K: 3, D: 3,
			Oversold: 20, Overbought: 80, Weight: 40, MaxScore: 40,
		},
		MACD:      MACDConfig{Fast: 12, Slow: 26, Signal: 9, Weight: 36, MaxScore: 36},
		Bollinger: BollingerConfig{Period: 20, StdDev: 2, Weight: 40, MaxScore: 40},
		WilliamsR: WilliamsRConfig{Period: 14, Oversold: -80, Overbought: -20, Weight: 50, MaxScore: 50},
		Stochastic: StochasticConfig{
			K: 14, D: 3, Oversold: 20, Overbought: 80, Weight: 18, MaxScore: 36,
		},
		EMATrend:   EMATrendConfig{Fast: 10, Mid: 25, Slow: 50, Weight: 38, MaxScore: 38},
		AwesomeOsc: AwesomeOscConfig{Fast: 5, Slow: 34, Weight: 34, MaxScore: 34},
		KDJ:        KDJConfig{Period: 9, SmoothK: 3, SmoothD: 3, Weight: 34, MaxScore: 34},
		OBV:        OBVConfig{SMAWindow: 20, Weight: 36, MaxScore: 36},
		CMF:        CMFConfig{Period: 20, Weight: 38, MaxScore: 38},
		ATR:        ATRConfig{Period: 14, LowThreshold: 2, HighThreshold: 4, MaxScore: 30},
		CCI:        CCIConfig{Period: 20, Weight: 32, MaxScore: 32},
		DOM:        DOMConfig{NarrowBand: 0.1, WideBand: 0.3, Weight: 30, MaxScore: 30},
	}
}
