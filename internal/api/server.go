// Package api exposes the operator command surface (spec.md §6) over HTTP
// plus the WebSocket event feed. Grounded on the teacher's
// internal/api/server.go (gin.Engine + gin-contrib/cors setup, Start/
// Shutdown lifecycle, errorResponse/successResponse helpers) trimmed from
// its ~300-route multi-tenant surface down to the nine operator commands
// spec.md §6 names: start_screener, stop_screener, scan_now, get_state,
// open, close, close_all, reset_account, reset_circuit_breaker.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"screener/internal/events"
	"screener/internal/marketdata"
	"screener/internal/model"
	"screener/internal/paper"
	"screener/internal/risk"
	"screener/internal/screener"
)

// Config holds HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	ProductionMode bool
}

// Server exposes the operator command surface and the WebSocket feed.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	cfg        Config

	bus       *events.Bus
	provider  marketdata.Provider
	sc        *screener.Screener
	trader    *paper.Trader
	rm        *risk.Manager
	hub       *WSHub
	runCancel context.CancelFunc
}

// New wires a Server over the screener loop, the paper trader, and the risk
// manager, and mounts the WebSocket hub onto the shared event bus.
func New(cfg Config, bus *events.Bus, provider marketdata.Provider, sc *screener.Screener, trader *paper.Trader, rm *risk.Manager) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8088"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:   router,
		cfg:      cfg,
		bus:      bus,
		provider: provider,
		sc:       sc,
		trader:   trader,
		rm:       rm,
		hub:      InitWebSocket(bus),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		api.POST("/screener/start", s.handleStartScreener)
		api.POST("/screener/stop", s.handleStopScreener)
		api.POST("/screener/scan-now", s.handleScanNow)
		api.GET("/state", s.handleGetState)

		api.POST("/positions/open", s.handleOpen)
		api.POST("/positions/:id/close", s.handleClose)
		api.POST("/positions/close-all", s.handleCloseAll)

		api.POST("/account/reset", s.handleResetAccount)
		api.POST("/circuit-breaker/reset", s.handleResetCircuitBreaker)
	}
}

// Start begins serving HTTP on cfg.Host:cfg.Port.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("starting operator API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("operator API server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down operator API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Format(time.RFC3339)})
}

// handleStartScreener implements the start_screener operator command. The
// screener's Init step is re-run each time so the active symbol set stays
// current with the market-data provider's contract list.
func (s *Server) handleStartScreener(c *gin.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	s.runCancel = cancel
	s.sc.Init(ctx)
	go s.sc.Run(ctx)
	successResponse(c, gin.H{"started": true})
}

// handleStopScreener implements the stop_screener operator command.
func (s *Server) handleStopScreener(c *gin.Context) {
	s.sc.Stop()
	if s.runCancel != nil {
		s.runCancel()
	}
	successResponse(c, gin.H{"stopped": true})
}

// handleScanNow implements the scan_now operator command.
func (s *Server) handleScanNow(c *gin.Context) {
	s.sc.ScanNow(c.Request.Context())
	successResponse(c, gin.H{"opportunities": s.sc.LastOpportunities()})
}

// handleGetState implements the get_state operator command: the current
// account, risk state, and last-ranked opportunities in one snapshot.
func (s *Server) handleGetState(c *gin.Context) {
	successResponse(c, gin.H{
		"account":       s.trader.Account(),
		"risk":          s.rm.State(),
		"opportunities": s.sc.LastOpportunities(),
		"stats":         s.trader.Stats(time.Now()),
	})
}

type openRequest struct {
	Symbol string  `json:"symbol" binding:"required"`
	Side   string  `json:"side" binding:"required"`
	Price  float64 `json:"price"`
}

// handleOpen implements the open(symbol, side, price?) operator command. If
// price is omitted it is fetched from the provider's current candle.
func (s *Server) handleOpen(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	side := model.Side(req.Side)
	if side != model.Long && side != model.Short {
		errorResponse(c, http.StatusBadRequest, "side must be LONG or SHORT")
		return
	}

	price := req.Price
	if price == 0 {
		candles, err := s.provider.FetchCandles(c.Request.Context(), req.Symbol, 1, nil, nil)
		if err != nil || len(candles) == 0 {
			errorResponse(c, http.StatusBadGateway, "unable to resolve current price")
			return
		}
		price = candles[len(candles)-1].Close
	}

	lastSignal, ok := s.sc.SignalFor(req.Symbol)
	if !ok {
		errorResponse(c, http.StatusConflict, "no signal computed yet for symbol, wait for the next scan")
		return
	}
	res := s.trader.Open(req.Symbol, side, lastSignal, price, time.Now())
	if !res.Success {
		successResponse(c, gin.H{"success": false, "reason": res.Reason})
		return
	}
	s.bus.PublishPositionOpened(res.Position)
	successResponse(c, gin.H{"success": true, "position": res.Position})
}

type closeRequest struct {
	Price float64 `json:"price"`
}

// handleClose implements the close(positionId, price?) operator command.
func (s *Server) handleClose(c *gin.Context) {
	id := c.Param("id")
	var req closeRequest
	_ = c.ShouldBindJSON(&req)

	price := req.Price
	if price == 0 {
		acc := s.trader.Account()
		pos, ok := acc.Positions[id]
		if !ok {
			errorResponse(c, http.StatusNotFound, "unknown position")
			return
		}
		price = pos.CurrentPrice
	}

	res := s.trader.Close(id, price, model.CloseManual, time.Now())
	if !res.Success {
		successResponse(c, gin.H{"success": false, "reason": res.Reason})
		return
	}
	s.bus.PublishPositionClosed(res.Position, res.Trade)
	successResponse(c, gin.H{"success": true, "position": res.Position})
}

// handleCloseAll implements the close_all operator command.
func (s *Server) handleCloseAll(c *gin.Context) {
	acc := s.trader.Account()
	priceFn := func(symbol string) float64 {
		for _, p := range acc.Positions {
			if p.Symbol == symbol {
				return p.CurrentPrice
			}
		}
		return 0
	}
	results := s.trader.CloseAll(priceFn, time.Now())
	for _, r := range results {
		if r.Success {
			s.bus.PublishPositionClosed(r.Position, r.Trade)
		}
	}
	successResponse(c, gin.H{"closed": len(results)})
}

// handleResetAccount implements the reset_account operator command.
func (s *Server) handleResetAccount(c *gin.Context) {
	s.trader.Reset(time.Now())
	s.bus.PublishAccountUpdate(s.trader.Account())
	successResponse(c, gin.H{"reset": true})
}

// handleResetCircuitBreaker implements the reset_circuit_breaker operator
// command.
func (s *Server) handleResetCircuitBreaker(c *gin.Context) {
	s.rm.ResetCircuitBreaker()
	s.bus.PublishCircuitBreaker(s.rm.State())
	successResponse(c, gin.H{"reset": true})
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": true, "message": message})
}

func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
