package store

import (
	"context"
	"math"
	"testing"
	"time"

	"InsiderScan/internal/domain/models"
)

func event(symbol, actor string, offset int, ref string) models.TradeEvent {
	return models.TradeEvent{
		Symbol:    symbol,
		Actor:     actor,
		Shares:    100,
		Price:     50,
		EventTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset),
		SourceRef: ref,
	}
}

func TestAppendIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	batch := []models.TradeEvent{
		event("ABC", "alice", 0, "f1"),
		event("ABC", "bob", 1, "f2"),
	}

	accepted, duplicates, err := s.Append(ctx, batch)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if accepted != 2 || duplicates != 0 {
		t.Fatalf("first append: accepted=%d dup=%d", accepted, duplicates)
	}

	accepted, duplicates, err = s.Append(ctx, batch)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if accepted != 0 || duplicates != 2 {
		t.Fatalf("replay must dedupe: accepted=%d dup=%d", accepted, duplicates)
	}
	if s.Len() != 2 {
		t.Fatalf("store size %d", s.Len())
	}
}

func TestAppendDropsMalformed(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	bad := []models.TradeEvent{
		{Symbol: "", EventTime: time.Now(), Shares: 1, Price: 1},
		{Symbol: "ABC", Shares: 1, Price: 1}, // zero time
		{Symbol: "ABC", EventTime: time.Now(), Shares: -5, Price: 1},
		{Symbol: "ABC", EventTime: time.Now(), Shares: math.NaN(), Price: 1},
	}
	good := event("ABC", "alice", 0, "f1")

	accepted, _, err := s.Append(ctx, append(bad, good))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if accepted != 1 {
		t.Fatalf("expected only the valid event accepted, got %d", accepted)
	}
	if s.Dropped() != int64(len(bad)) {
		t.Fatalf("dropped count %d, want %d", s.Dropped(), len(bad))
	}
}

func TestAppendNormalizes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	e := event("abc", "", 0, "f1")
	if _, _, err := s.Append(ctx, []models.TradeEvent{e}); err != nil {
		t.Fatalf("append: %v", err)
	}
	events, err := s.Events(ctx)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if events[0].Symbol != "ABC" {
		t.Fatalf("symbol not uppercased: %q", events[0].Symbol)
	}
	if events[0].Actor != models.ActorUnknown {
		t.Fatalf("empty actor must default to sentinel, got %q", events[0].Actor)
	}
}

func TestNormalizedDuplicatesCollapse(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a := event("abc", "alice", 0, "f1")
	b := event("ABC", "alice", 0, "f1")
	if _, _, err := s.Append(ctx, []models.TradeEvent{a, b}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("case-variant duplicates must collapse, got %d events", s.Len())
	}
}

func TestEventsSorted(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	batch := []models.TradeEvent{
		event("ZZZ", "alice", 2, "f3"),
		event("ABC", "bob", 1, "f2"),
		event("ABC", "alice", 0, "f1"),
	}
	if _, _, err := s.Append(ctx, batch); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := s.Events(ctx)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if events[0].Symbol != "ABC" || events[0].Actor != "alice" {
		t.Fatalf("wrong first event %+v", events[0])
	}
	if events[2].Symbol != "ZZZ" {
		t.Fatalf("wrong last event %+v", events[2])
	}
}

func TestBySymbolPartitions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	batch := []models.TradeEvent{
		event("ABC", "alice", 1, "f1"),
		event("ABC", "bob", 0, "f2"),
		event("XYZ", "carol", 0, "f3"),
	}
	if _, _, err := s.Append(ctx, batch); err != nil {
		t.Fatalf("append: %v", err)
	}

	bySym, err := s.BySymbol(ctx)
	if err != nil {
		t.Fatalf("by symbol: %v", err)
	}
	if len(bySym) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(bySym))
	}
	abc := bySym["ABC"]
	if len(abc) != 2 || abc[0].EventTime.After(abc[1].EventTime) {
		t.Fatalf("per-symbol slice must ascend by time: %v", abc)
	}
}
