package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"InsiderScan/internal/domain/models"
	domrepo "InsiderScan/internal/domain/repository"
)

// MemoryStore is the in-process trade event store: normalized, deduplicated,
// append-only. It replaces the accumulate-and-rewrite flat file the pipeline
// used to maintain; Append is idempotent so re-ingesting a batch is safe.
type MemoryStore struct {
	mu      sync.RWMutex
	events  map[string]models.TradeEvent // dedup key -> event
	dropped atomic.Int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]models.TradeEvent)}
}

// Append normalizes, validates, and dedupes a batch. Malformed records are
// dropped individually and counted; the batch itself never fails. Duplicates
// leave the stored event untouched (events are immutable once ingested).
func (s *MemoryStore) Append(_ context.Context, events []models.TradeEvent) (accepted, duplicates int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		e = e.Normalize()
		if !e.Valid() {
			s.dropped.Add(1)
			continue
		}
		key := e.DedupKey()
		if _, ok := s.events[key]; ok {
			duplicates++
			continue
		}
		s.events[key] = e
		accepted++
	}
	return accepted, duplicates, nil
}

// Events returns a snapshot sorted by (symbol, event_time, actor, source_ref)
// so callers observe a stable, reproducible order.
func (s *MemoryStore) Events(_ context.Context) ([]models.TradeEvent, error) {
	s.mu.RLock()
	out := make([]models.TradeEvent, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return lessEvent(out[i], out[j]) })
	return out, nil
}

// BySymbol partitions the snapshot per symbol, each slice ascending by event
// time, ready for independent parallel processing.
func (s *MemoryStore) BySymbol(ctx context.Context) (map[string][]models.TradeEvent, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.TradeEvent)
	for _, e := range events {
		out[e.Symbol] = append(out[e.Symbol], e)
	}
	return out, nil
}

// Dropped reports malformed records dropped since startup.
func (s *MemoryStore) Dropped() int64 { return s.dropped.Load() }

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func lessEvent(a, b models.TradeEvent) bool {
	if a.Symbol != b.Symbol {
		return a.Symbol < b.Symbol
	}
	if !a.EventTime.Equal(b.EventTime) {
		return a.EventTime.Before(b.EventTime)
	}
	if a.Actor != b.Actor {
		return a.Actor < b.Actor
	}
	return a.SourceRef < b.SourceRef
}

var _ domrepo.EventStore = (*MemoryStore)(nil)
