package usecase

import (
	"context"
	"fmt"
	"time"

	"InsiderScan/internal/domain/models"
	drepo "InsiderScan/internal/domain/repository"
	"InsiderScan/internal/repository"
)

// EventProcessor routes incoming trade events into the deduplicating store
// and, when configured, mirrors accepted events to the ClickHouse archive.
type EventProcessor struct {
	store   drepo.EventStore
	archive *repository.CHEventArchive // optional
	metrics drepo.Metrics
	source  string
}

// NewEventProcessor creates a new EventProcessor instance.
func NewEventProcessor(store drepo.EventStore, archive *repository.CHEventArchive, metrics drepo.Metrics, source string) *EventProcessor {
	return &EventProcessor{store: store, archive: archive, metrics: metrics, source: source}
}

// Process ingests a single event.
func (p *EventProcessor) Process(ctx context.Context, e *models.TradeEvent) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}
	return p.ProcessBatch(ctx, []models.TradeEvent{*e})
}

// ProcessBatch ingests a batch. Malformed records are dropped individually by
// the store; the counts surface through metrics, never a batch-level failure.
func (p *EventProcessor) ProcessBatch(ctx context.Context, events []models.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	before := p.store.Dropped()
	accepted, duplicates, err := p.store.Append(ctx, events)
	if err != nil {
		p.metrics.RecordError("store_append")
		return fmt.Errorf("append events: %w", err)
	}
	dropped := int(p.store.Dropped() - before)

	p.metrics.RecordEventsIngested(p.source, accepted)
	p.metrics.RecordEventsDuplicate(p.source, duplicates)
	p.metrics.RecordEventsDropped(p.source, dropped)
	p.metrics.RecordLatency("ingest_batch", time.Since(start).Seconds())

	if p.archive != nil && accepted > 0 {
		if err := p.archive.StoreBatch(ctx, events); err != nil {
			// archive lag is tolerable; the in-memory store stays authoritative
			p.metrics.RecordError("archive_store")
		}
	}
	return nil
}
