package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ActorUnknown is the sentinel used when the reporting insider could not be resolved.
const ActorUnknown = "(unknown)"

// TradeEvent is one reported insider transaction, normalized at the ingestion
// boundary. Immutable once ingested; corrections arrive as new events.
type TradeEvent struct {
	Symbol        string    `json:"symbol"`
	Actor         string    `json:"actor"`
	Shares        float64   `json:"shares"`
	Price         float64   `json:"price"`
	ScheduledPlan bool      `json:"scheduled_plan"` // pre-arranged trading plan (e.g. 10b5-1)
	EventTime     time.Time `json:"event_time"`     // filing time, UTC
	SourceRef     string    `json:"source_ref"`     // audit display only, never used in computation
}

// Notional returns shares * price. Always derived, never stored independently.
func (e TradeEvent) Notional() float64 {
	return e.Shares * e.Price
}

// DedupKey identifies the event for idempotent appends.
func (e TradeEvent) DedupKey() string {
	return fmt.Sprintf("%s|%s|%d|%s", e.Symbol, e.Actor, e.EventTime.UnixNano(), e.SourceRef)
}

// Normalize case-normalizes the symbol, defaults the actor sentinel, and
// forces the event time to UTC. Returns the normalized copy.
func (e TradeEvent) Normalize() TradeEvent {
	e.Symbol = strings.ToUpper(strings.TrimSpace(e.Symbol))
	e.Actor = strings.TrimSpace(e.Actor)
	if e.Actor == "" {
		e.Actor = ActorUnknown
	}
	e.EventTime = e.EventTime.UTC()
	return e
}

// Valid reports whether the event is usable for windowing. Malformed events
// are dropped individually by the store, never the whole batch.
func (e TradeEvent) Valid() bool {
	if e.Symbol == "" || e.EventTime.IsZero() {
		return false
	}
	if e.Shares < 0 || e.Price < 0 {
		return false
	}
	if math.IsNaN(e.Shares) || math.IsInf(e.Shares, 0) ||
		math.IsNaN(e.Price) || math.IsInf(e.Price, 0) {
		return false
	}
	return true
}

// WindowStat is a trailing-window aggregate for one symbol. Derived on demand
// for a (symbol, reference_time, window) triple; no independent lifecycle.
type WindowStat struct {
	DistinctActors int     `json:"distinct_actors"`
	TotalNotional  float64 `json:"total_notional"`
}

// Signal marks the first event at which a symbol's trailing-window activity
// crossed the materiality thresholds.
type Signal struct {
	Symbol         string    `json:"symbol"`
	EventTime      time.Time `json:"event_time"`
	DistinctActors int       `json:"distinct_actors"`
	TotalNotional  float64   `json:"total_notional"`
}

// SymbolActivity is a trailing-window aggregate as of a reference time,
// used for recent-activity alerting.
type SymbolActivity struct {
	Symbol         string    `json:"symbol"`
	DistinctActors int       `json:"distinct_actors"`
	TotalNotional  float64   `json:"total_notional"`
	LastEventTime  time.Time `json:"last_event_time"`
}
