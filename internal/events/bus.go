// Package events implements the EventSink capability (spec.md §6): a
// publish/subscribe bus a dashboard (or any other consumer) reads from.
// Grounded on the teacher's internal/events/bus.go (EventType enum,
// Subscribe/Publish, non-blocking goroutine dispatch per subscriber) — the
// teacher's per-user BroadcastFunc callback registry (added there for
// multi-tenancy) is dropped since this system runs one paper-trading
// account, not one per user.
package events

import (
	"sync"
	"time"
)

// Type is one of the spec's outbound message kinds.
type Type string

const (
	Opportunities   Type = "OPPORTUNITIES"
	SignalEvent     Type = "SIGNAL"
	PositionOpened  Type = "POSITION_OPENED"
	PositionClosed  Type = "POSITION_CLOSED"
	AccountUpdate   Type = "ACCOUNT_UPDATE"
	CircuitBreaker  Type = "CIRCUIT_BREAKER"
	TradeRecorded   Type = "TRADE_RECORDED"
	ScreenerStarted Type = "SCREENER_STARTED"
	ScreenerStopped Type = "SCREENER_STOPPED"
	StatusUpdate    Type = "STATUS_UPDATE"
)

// Event is one message on the bus.
type Event struct {
	Type      Type                   `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber handles one event.
type Subscriber func(Event)

// Bus fans events out to per-type and all-event subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type][]Subscriber
	allSubs     []Subscriber
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{subscribers: make(map[Type][]Subscriber)}
}

// Subscribe registers a subscriber for one event type.
func (b *Bus) Subscribe(t Type, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[t] = append(b.subscribers[t], sub)
}

// SubscribeAll registers a subscriber for every event type — the dashboard
// WebSocket hub (internal/api) uses this to fan everything out to clients.
func (b *Bus) SubscribeAll(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allSubs = append(b.allSubs, sub)
}

// Publish dispatches event to every matching subscriber in its own
// goroutine, matching the teacher's non-blocking fan-out.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, sub := range b.subscribers[event.Type] {
		go sub(event)
	}
	for _, sub := range b.allSubs {
		go sub(event)
	}
}

func publish(b *Bus, t Type, data map[string]interface{}) {
	b.Publish(Event{Type: t, Data: data})
}

// PublishOpportunities publishes the screener's ranked top-N list.
func (b *Bus) PublishOpportunities(opportunities interface{}) {
	publish(b, Opportunities, map[string]interface{}{"opportunities": opportunities})
}

// PublishSignal publishes one symbol's aggregated signal.
func (b *Bus) PublishSignal(signal interface{}) {
	publish(b, SignalEvent, map[string]interface{}{"signal": signal})
}

// PublishPositionOpened publishes a newly opened position.
func (b *Bus) PublishPositionOpened(position interface{}) {
	publish(b, PositionOpened, map[string]interface{}{"position": position})
}

// PublishPositionClosed publishes a closed position together with its trade.
func (b *Bus) PublishPositionClosed(position, trade interface{}) {
	publish(b, PositionClosed, map[string]interface{}{"position": position, "trade": trade})
}

// PublishAccountUpdate publishes the current account state.
func (b *Bus) PublishAccountUpdate(state interface{}) {
	publish(b, AccountUpdate, map[string]interface{}{"state": state})
}

// PublishCircuitBreaker publishes circuit-breaker state.
func (b *Bus) PublishCircuitBreaker(info interface{}) {
	publish(b, CircuitBreaker, map[string]interface{}{"info": info})
}

// PublishTradeRecorded publishes a realized trade result.
func (b *Bus) PublishTradeRecorded(position interface{}, pnl float64, consecutiveLosses int) {
	publish(b, TradeRecorded, map[string]interface{}{
		"position":          position,
		"pnl":               pnl,
		"consecutiveLosses": consecutiveLosses,
	})
}

// PublishScreenerStarted publishes SCREENER_STARTED.
func (b *Bus) PublishScreenerStarted() { publish(b, ScreenerStarted, nil) }

// PublishScreenerStopped publishes SCREENER_STOPPED.
func (b *Bus) PublishScreenerStopped() { publish(b, ScreenerStopped, nil) }

// PublishStatusUpdate publishes the periodic heartbeat status message.
func (b *Bus) PublishStatusUpdate(status interface{}) {
	publish(b, StatusUpdate, map[string]interface{}{"status": status})
}
