package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"screener/internal/cache"
	"screener/internal/events"
	"screener/internal/indicators"
	fakemd "screener/internal/marketdata/fake"
	"screener/internal/model"
	"screener/internal/paper"
	"screener/internal/risk"
	"screener/internal/screener"
	"screener/internal/signal"
)

func newTestServer() *Server {
	s, _, _ := newTestServerWithScreener()
	return s
}

func newTestServerWithScreener() (*Server, *fakemd.Provider, *screener.Screener) {
	now := time.Now()
	bus := events.New()
	provider := fakemd.New()
	rm := risk.NewManager(risk.DefaultConfig(), paper.DefaultConfig().InitialBalance, now)
	trader := paper.New(paper.DefaultConfig(), rm, nil, now)
	cacheSvc := cache.New(cache.Config{Enabled: false})
	sc := screener.New(provider, bus, cacheSvc, indicators.Defaults(), signal.DefaultConfig(), screener.DefaultConfig())
	return New(Config{Host: "127.0.0.1", Port: 0}, bus, provider, sc, trader, rm), provider, sc
}

func buildTrendingCandles(n int, start, drift float64) []model.Candle {
	candles := make([]model.Candle, 0, n)
	price := start
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		price *= 1 + drift
		candles = append(candles, model.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      price * 0.999,
			High:      price * 1.001,
			Low:       price * 0.998,
			Close:     price,
			Volume:    1000,
		})
	}
	return candles
}

func TestHandleHealth_ReturnsHealthy(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHandleGetState_ReturnsAccountAndRisk(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "\"account\"") {
		t.Fatalf("expected account in state response, got %s", w.Body.String())
	}
}

func TestHandleOpen_RejectsInvalidSide(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()
	body := strings.NewReader(`{"symbol":"BTCUSDT","side":"SIDEWAYS"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/positions/open", body)
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid side, got %d", w.Code)
	}
}

func TestHandleOpen_RejectsSymbolWithNoComputedSignal(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()
	body := strings.NewReader(`{"symbol":"BTCUSDT","side":"LONG","price":100}`)
	req := httptest.NewRequest(http.MethodPost, "/api/positions/open", body)
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a symbol the screener hasn't scanned yet, got %d: %s", w.Code, w.Body.String())
	}
}

// TestHandleOpen_SucceedsWithScreenerSignal drives a real scan through the
// screener so handleOpen is backed by an actual computed Signal rather than
// a fabricated one, then opens a position against it.
func TestHandleOpen_SucceedsWithScreenerSignal(t *testing.T) {
	s, provider, sc := newTestServerWithScreener()

	provider.SeedCandles("BTCUSDT", buildTrendingCandles(60, 100, 0.02))
	sc.Init(context.Background())
	sc.ScanNow(context.Background())

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"symbol":"BTCUSDT","side":"LONG","price":100}`)
	req := httptest.NewRequest(http.MethodPost, "/api/positions/open", body)
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Success bool `json:"success"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if !resp.Data.Success {
		t.Fatalf("expected the open to succeed against a real strong signal, got %s", w.Body.String())
	}
}

func TestHandleResetCircuitBreaker_Succeeds(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/circuit-breaker/reset", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
