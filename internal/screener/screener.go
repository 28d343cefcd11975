// Package screener implements the Screener Loop (spec.md §4.5): contract
// discovery, ticker subscription, a periodic worker-pool scan cycle that
// scores and ranks symbols, and opportunity publication. Grounded on the
// teacher's internal/scanner/scanner.go (ticker + worker-pool + batched
// symbolChan/resultChan scan cycle, sort-then-truncate ranking) merged with
// internal/screener/screener.go's filter/rank/publish idiom — generalized
// from Binance-specific tickers/klines to the venue-agnostic
// marketdata.Provider and the new indicator/signal/risk pipeline.
package screener

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"screener/internal/cache"
	"screener/internal/events"
	"screener/internal/indicators"
	"screener/internal/marketdata"
	"screener/internal/model"
	"screener/internal/signal"
)

// SymbolRecord holds one symbol's live tick data, last signal, and
// lifecycle timestamps — spec.md §4.5's "Each symbol record holds its tick
// data, last signal, and lifecycle timestamps."
type SymbolRecord struct {
	Symbol       string
	LastPrice    float64
	BestBid      float64
	BestAsk      float64
	Volume24h    float64
	Turnover24h  float64
	LastTickAt   time.Time
	LastSignal   *model.Signal
	LastScanAt   time.Time
}

func (r SymbolRecord) spreadPercent() float64 {
	if r.LastPrice == 0 {
		return 0
	}
	return (r.BestAsk - r.BestBid) / r.LastPrice * 100
}

// Opportunity is one ranked, screening-valid symbol published to the
// OPPORTUNITIES event (spec.md §4.5).
type Opportunity struct {
	Symbol       string        `json:"symbol"`
	Signal       model.Signal  `json:"signal"`
	RankScore    float64       `json:"rankScore"`
	SpreadPct    float64       `json:"spreadPercent"`
	Turnover24h  float64       `json:"turnover24h"`
	FundingRate  *float64      `json:"fundingRate,omitempty"`
}

// Screener schedules scans across symbols, ranks screening-valid signals,
// and publishes the top opportunities.
type Screener struct {
	provider marketdata.Provider
	bus      *events.Bus
	cache    *cache.Service
	indCfg   indicators.Config
	aggCfg   signal.Config

	cfg Config

	mu      sync.RWMutex
	records map[string]*SymbolRecord
	lastOps []Opportunity

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// New creates a Screener. Call Init to populate the initial symbol set
// before Run.
func New(provider marketdata.Provider, bus *events.Bus, cacheSvc *cache.Service, indCfg indicators.Config, aggCfg signal.Config, cfg Config) *Screener {
	return &Screener{
		provider: provider,
		bus:      bus,
		cache:    cacheSvc,
		indCfg:   indCfg,
		aggCfg:   aggCfg,
		cfg:      cfg,
		records:  make(map[string]*SymbolRecord),
	}
}

// Init fetches the active-contract list, keeps linear perpetuals meeting
// the minimum turnover, sorts by turnover descending, and retains the top
// TopCoinsCount. On fetch failure it falls back to a hard-coded symbol
// list, exactly as spec.md §4.5 requires.
func (s *Screener) Init(ctx context.Context) {
	contracts, err := s.provider.ListContracts(ctx)
	if err != nil || len(contracts) == 0 {
		log.Warn().Err(err).Msg("contract list fetch failed, falling back to hard-coded symbols")
		s.seedRecords(s.cfg.FallbackSymbols)
		return
	}

	filtered := make([]marketdata.Contract, 0, len(contracts))
	for _, c := range contracts {
		if c.IsQuanto {
			continue
		}
		if c.Turnover24h < s.cfg.MinVolume24h {
			continue
		}
		filtered = append(filtered, c)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Turnover24h > filtered[j].Turnover24h })
	if len(filtered) > s.cfg.TopCoinsCount {
		filtered = filtered[:s.cfg.TopCoinsCount]
	}

	symbols := make([]string, 0, len(filtered))
	for _, c := range filtered {
		symbols = append(symbols, c.Symbol)
	}
	s.seedRecords(symbols)
}

func (s *Screener) seedRecords(symbols []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sym := range symbols {
		if _, ok := s.records[sym]; !ok {
			s.records[sym] = &SymbolRecord{Symbol: sym}
		}
	}
}

func (s *Screener) symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for sym := range s.records {
		out = append(out, sym)
	}
	return out
}

// Run subscribes to ticker updates for every known symbol and starts the
// periodic scan loop in background goroutines, then returns; the loop runs
// until ctx is cancelled or Stop is called.
func (s *Screener) Run(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	for _, sym := range s.symbols() {
		sym := sym
		go func() {
			_ = s.provider.SubscribeTicker(ctx, sym, func(t marketdata.Ticker) {
				s.mu.Lock()
				rec, ok := s.records[sym]
				if ok {
					rec.LastPrice = t.Price
					rec.BestBid = t.BestBid
					rec.BestAsk = t.BestAsk
					rec.Volume24h = t.Volume24h
					rec.Turnover24h = t.Turnover24h
					rec.LastTickAt = t.Timestamp
				}
				s.mu.Unlock()
			})
		}()
	}

	s.bus.PublishScreenerStarted()
	s.wg.Add(1)
	go s.runScanLoop(ctx)
}

func (s *Screener) runScanLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	s.scan(ctx)
	for {
		select {
		case <-ticker.C:
			s.scan(ctx)
		case <-s.stopChan:
			s.bus.PublishScreenerStopped()
			return
		case <-ctx.Done():
			s.bus.PublishScreenerStopped()
			return
		}
	}
}

// ScanNow triggers a single scan cycle immediately — backs the operator's
// scan_now command.
func (s *Screener) ScanNow(ctx context.Context) {
	s.scan(ctx)
}

// scan runs one full cycle: batch symbols, fetch candles (cached), compute
// signals, apply the screening validity filter, rank, and publish the top
// 10 (spec.md §4.5).
func (s *Screener) scan(ctx context.Context) {
	symbols := s.symbols()
	startTime := time.Now()

	type scored struct {
		opp Opportunity
	}
	resultChan := make(chan scored, len(symbols))
	symbolChan := make(chan string, len(symbols))
	var wg sync.WaitGroup

	for i := 0; i < s.cfg.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range symbolChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if opp, ok := s.scanSymbol(ctx, sym); ok {
					resultChan <- scored{opp}
				}
			}
		}()
	}

	go func() {
		for i, sym := range symbols {
			select {
			case symbolChan <- sym:
			case <-ctx.Done():
			}
			if (i+1)%s.cfg.BatchSize == 0 {
				time.Sleep(s.cfg.InterBatchDelay)
			}
		}
		close(symbolChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	opportunities := make([]Opportunity, 0)
	for r := range resultChan {
		opportunities = append(opportunities, r.opp)
	}

	sort.Slice(opportunities, func(i, j int) bool { return opportunities[i].RankScore > opportunities[j].RankScore })
	if len(opportunities) > 10 {
		opportunities = opportunities[:10]
	}

	s.mu.Lock()
	s.lastOps = opportunities
	s.mu.Unlock()

	s.bus.PublishOpportunities(opportunities)
	log.Info().Dur("duration", time.Since(startTime)).Int("symbolsScanned", len(symbols)).
		Int("opportunities", len(opportunities)).Msg("scan cycle completed")
}

// scanSymbol fetches candles (via the 30s cache), computes the aggregated
// signal, and applies the screening validity filter — stricter than the
// risk gates (spec.md §4.5 step 3).
func (s *Screener) scanSymbol(ctx context.Context, sym string) (Opportunity, bool) {
	s.mu.RLock()
	onCooldownCheck := s.cache != nil
	s.mu.RUnlock()
	if onCooldownCheck && s.cache.OnCooldown(ctx, sym) {
		return Opportunity{}, false
	}

	interval := fmt.Sprintf("%dm", s.cfg.CandleGranularity)
	candles, ok := s.cache.GetCandles(ctx, sym, interval)
	if !ok {
		fetched, err := s.provider.FetchCandles(ctx, sym, s.cfg.CandleGranularity, nil, nil)
		if err != nil {
			return Opportunity{}, false
		}
		candles = fetched
		s.cache.PutCandles(ctx, sym, interval, candles)
	}

	indicatorResults := indicators.Evaluate(candles, nil, s.indCfg)
	sig := signal.Aggregate(sym, indicatorResults, s.aggCfg, time.Now())
	s.bus.PublishSignal(sig)

	s.mu.Lock()
	if rec, ok := s.records[sym]; ok {
		rec.LastSignal = &sig
		rec.LastScanAt = time.Now()
	}
	rec := s.records[sym]
	s.mu.Unlock()
	if rec == nil {
		return Opportunity{}, false
	}

	if !screeningValid(sig, rec.spreadPercent(), s.cfg) {
		return Opportunity{}, false
	}

	var fundingPtr *float64
	if rate, err := s.provider.FetchFundingRate(ctx, sym); err == nil {
		fundingPtr = &rate
	}

	opp := Opportunity{
		Symbol:      sym,
		Signal:      sig,
		RankScore:   rankScore(sig, rec.spreadPercent(), rec.Turnover24h),
		SpreadPct:   rec.spreadPercent(),
		Turnover24h: rec.Turnover24h,
		FundingRate: fundingPtr,
	}
	return opp, true
}

func screeningValid(sig model.Signal, spreadPct float64, cfg Config) bool {
	if sig.Classification == model.Neutral {
		return false
	}
	if abs(sig.TotalScore) < cfg.MinScore {
		return false
	}
	if sig.Confidence < cfg.MinConfidence {
		return false
	}
	if spreadPct > cfg.MaxSpreadPct {
		return false
	}
	if sig.Confluence < cfg.MinConfluence {
		return false
	}
	return true
}

// rankScore implements spec.md §4.5's ranking formula.
func rankScore(sig model.Signal, spreadPct, turnover24h float64) float64 {
	score := float64(abs(sig.TotalScore))/220*100 + sig.Confidence*50 + sig.Confluence*30

	var volumeBonus float64
	switch {
	case turnover24h >= 100_000_000:
		volumeBonus = 20
	case turnover24h >= 50_000_000:
		volumeBonus = 15
	case turnover24h >= 10_000_000:
		volumeBonus = 10
	case turnover24h >= 5_000_000:
		volumeBonus = 5
	}

	var strengthBonus float64
	switch sig.Classification {
	case model.ExtremeBuy, model.ExtremeSell:
		strengthBonus = 15
	case model.StrongBuy, model.StrongSell:
		strengthBonus = 10
	}

	var spreadPenalty float64
	if spreadPct > 0.05 {
		spreadPenalty += 10
	}
	if spreadPct > 0.08 {
		spreadPenalty += 10
	}

	return score + volumeBonus + strengthBonus - spreadPenalty
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// LastOpportunities returns the most recently published ranked list.
func (s *Screener) LastOpportunities() []Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Opportunity, len(s.lastOps))
	copy(out, s.lastOps)
	return out
}

// SignalFor returns the most recently computed Signal for sym and whether
// one has been computed yet. Used by the operator command surface to back
// a manually-issued open() with the screener's actual last evaluation
// instead of a fabricated one.
func (s *Screener) SignalFor(sym string) (model.Signal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sym]
	if !ok || rec.LastSignal == nil {
		return model.Signal{}, false
	}
	return *rec.LastSignal, true
}

// Cooldown applies a cooldown to sym, preventing re-entry into the
// opportunity list until CooldownDuration has elapsed.
func (s *Screener) Cooldown(ctx context.Context, sym string) {
	s.cache.SetCooldown(ctx, sym, s.cfg.CooldownDuration)
}

// Stop gracefully shuts down the scan loop.
func (s *Screener) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()
	s.wg.Wait()
}
