package repository

import (
	"context"
	"time"

	"InsiderScan/internal/domain/models"
)

// EventStore is the deduplicated trade event collection. Append is idempotent:
// re-appending an already-seen event counts as a duplicate, never a mutation.
type EventStore interface {
	Append(ctx context.Context, events []models.TradeEvent) (accepted, duplicates int, err error)
	Events(ctx context.Context) ([]models.TradeEvent, error)
	BySymbol(ctx context.Context) (map[string][]models.TradeEvent, error)
	Dropped() int64 // malformed records dropped so far
}

// EventStream delivers normalized trade events from the upstream parsing
// adapter (the scraper/parser stays outside this system).
type EventStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.TradeEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// PriceProvider supplies ascending daily bars per symbol. Gaps are expected
// and must not be filled.
type PriceProvider interface {
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
}

// SignalPublisher pushes emitted signals to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, signals []models.Signal) error
	Close() error
}

// Metrics records operational counters for the pipeline.
type Metrics interface {
	RecordEventsIngested(source string, n int)
	RecordEventsDuplicate(source string, n int)
	RecordEventsDropped(source string, n int)
	RecordSignals(n int)
	RecordEvaluation(outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
