package scan

import (
	"testing"
	"time"

	"InsiderScan/internal/domain/models"
)

func TestAggregateClosedInterval(t *testing.T) {
	window := 14 * 24 * time.Hour
	ref := day0.AddDate(0, 0, 14)
	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 100_000),  // exactly at ref-window
		ev("ABC", "bob", 7, 100_000),    // inside
		ev("ABC", "carol", 14, 100_000), // exactly at ref
		ev("ABC", "dave", 15, 100_000),  // after ref
	}

	got := Aggregate(events, "ABC", ref, window, nil)
	if got.DistinctActors != 3 || got.TotalNotional != 300_000 {
		t.Fatalf("unexpected stat %+v", got)
	}
}

func TestAggregateBeforeExcludesRef(t *testing.T) {
	window := 14 * 24 * time.Hour
	ref := day0.AddDate(0, 0, 14)
	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 100_000),
		ev("ABC", "bob", 14, 100_000),
		ev("ABC", "carol", 14, 100_000),
	}

	got := AggregateBefore(events, "ABC", ref, window, nil)
	if got.DistinctActors != 1 || got.TotalNotional != 100_000 {
		t.Fatalf("ref-instant events must be excluded, got %+v", got)
	}
}

func TestAggregateIgnoresOtherSymbols(t *testing.T) {
	window := 14 * 24 * time.Hour
	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 100_000),
		ev("XYZ", "bob", 0, 900_000),
	}
	got := Aggregate(events, "ABC", day0, window, nil)
	if got.DistinctActors != 1 || got.TotalNotional != 100_000 {
		t.Fatalf("cross-symbol leak: %+v", got)
	}
}

func TestAggregateFilter(t *testing.T) {
	window := 14 * 24 * time.Hour
	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 100_000),
		ev("ABC", "bob", 1, 100_000),
	}
	events[1].ScheduledPlan = true

	got := Aggregate(events, "ABC", day0.AddDate(0, 0, 2), window, ExcludeScheduledPlans)
	if got.DistinctActors != 1 || got.TotalNotional != 100_000 {
		t.Fatalf("filter not applied: %+v", got)
	}
}

func TestAggregateDistinctActorsCountOnce(t *testing.T) {
	window := 14 * 24 * time.Hour
	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 100_000),
		ev("ABC", "alice", 1, 100_000),
		ev("ABC", "alice", 2, 100_000),
	}
	got := Aggregate(events, "ABC", day0.AddDate(0, 0, 3), window, nil)
	if got.DistinctActors != 1 {
		t.Fatalf("actor counted more than once: %+v", got)
	}
	if got.TotalNotional != 300_000 {
		t.Fatalf("notional must sum every event: %+v", got)
	}
}
