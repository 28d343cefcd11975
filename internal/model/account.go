package model

import "time"

// Side is the direction of a position.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// PositionStatus tracks a position's lifecycle stage.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// CloseReason records why a position was closed.
type CloseReason string

const (
	CloseStopLoss    CloseReason = "stop_loss"
	CloseTakeProfit  CloseReason = "take_profit"
	CloseManual      CloseReason = "manual"
	CloseAll         CloseReason = "close_all"
	CloseLiquidation CloseReason = "liquidation"
)

// Position is a simulated perpetual-futures position. A CLOSED position
// additionally carries ClosePrice/CloseFee/RealizedPnL/CloseTime/CloseReason.
type Position struct {
	ID             string         `json:"id"`
	Symbol         string         `json:"symbol"`
	Side           Side           `json:"side"`
	Size           float64        `json:"size"`
	EntryPrice     float64        `json:"entryPrice"`
	CurrentPrice   float64        `json:"currentPrice"`
	Leverage       int            `json:"leverage"`
	Margin         float64        `json:"margin"`
	StopLoss       float64        `json:"stopLoss"`
	TakeProfit     float64        `json:"takeProfit"`
	UnrealizedPnL  float64        `json:"unrealizedPnL"`
	OpenFee        float64        `json:"openFee"`
	SignalSnapshot Signal         `json:"signalSnapshot"`
	OpenTime       time.Time      `json:"openTime"`
	Status         PositionStatus `json:"status"`

	ClosePrice  float64     `json:"closePrice,omitempty"`
	CloseFee    float64     `json:"closeFee,omitempty"`
	RealizedPnL float64     `json:"realizedPnL,omitempty"`
	CloseTime   time.Time   `json:"closeTime,omitempty"`
	CloseReason CloseReason `json:"closeReason,omitempty"`
}

// Account is the simulated paper-trading account. Invariants (enforced by
// internal/paper, never by this struct itself):
//
//	equity     = balance + sum(unrealizedPnL over open positions)
//	freeMargin = equity - margin
//	margin     = sum(position.margin over open positions), never negative
//	len(positions) <= maxOpenPositions
type Account struct {
	Balance        float64              `json:"balance"`
	Equity         float64              `json:"equity"`
	Margin         float64              `json:"margin"`
	FreeMargin     float64              `json:"freeMargin"`
	RealizedProfit float64              `json:"realizedProfit"`
	Positions      map[string]*Position `json:"positions"`
}

// TradeRecord is one entry in the in-memory trade log (OPEN or CLOSE).
type TradeRecord struct {
	Kind      string    `json:"kind"` // "OPEN" or "CLOSE"
	Position  Position  `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats are monotone counters over the simulator lifetime.
type Stats struct {
	TotalTrades   int       `json:"totalTrades"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	GrossProfit   float64   `json:"grossProfit"`
	GrossLoss     float64   `json:"grossLoss"`
	PeakEquity    float64   `json:"peakEquity"`
	MaxDrawdown   float64   `json:"maxDrawdown"`
	StartTime     time.Time `json:"startTime"`
	InitialEquity float64   `json:"initialEquity"`
}

// RiskState is the Risk Manager's tracked state, mirrored for display.
type RiskState struct {
	DailyStartBalance      float64  `json:"dailyStartBalance"`
	CurrentBalance         float64  `json:"currentBalance"`
	DailyPnL               float64  `json:"dailyPnL"`
	ConsecutiveLosses      int      `json:"consecutiveLosses"`
	CircuitBreakerTriggered bool    `json:"circuitBreakerTriggered"`
	TrackedPositions       []string `json:"trackedPositions"`
}
