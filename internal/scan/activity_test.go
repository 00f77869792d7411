package scan

import (
	"testing"
	"time"

	"InsiderScan/internal/domain/models"
)

func TestRecentActivityThresholdsAndOrder(t *testing.T) {
	asOf := day0.AddDate(0, 0, 7)
	window := 7 * 24 * time.Hour
	events := []models.TradeEvent{
		// AAA: 3 actors, 600k
		ev("AAA", "alice", 1, 200_000),
		ev("AAA", "bob", 2, 200_000),
		ev("AAA", "carol", 3, 200_000),
		// BBB: 3 actors, 900k -> same actors as AAA, more notional
		ev("BBB", "alice", 4, 300_000),
		ev("BBB", "bob", 5, 300_000),
		ev("BBB", "carol", 6, 300_000),
		// CCC: 2 actors, below min_actors
		ev("CCC", "dave", 5, 500_000),
		ev("CCC", "erin", 6, 500_000),
		// DDD: too old
		ev("DDD", "alice", -10, 900_000),
	}

	got := RecentActivity(events, asOf, window, 3, 300_000, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 symbols, got %d: %v", len(got), got)
	}
	if got[0].Symbol != "BBB" || got[1].Symbol != "AAA" {
		t.Fatalf("wrong order: %v", got)
	}
	if got[0].TotalNotional != 900_000 || got[0].DistinctActors != 3 {
		t.Fatalf("unexpected stats %+v", got[0])
	}
	if !got[1].LastEventTime.Equal(day0.AddDate(0, 0, 3)) {
		t.Fatalf("wrong last event time %v", got[1].LastEventTime)
	}
}

func TestRecentActivityTieBreaksBySymbol(t *testing.T) {
	asOf := day0.AddDate(0, 0, 3)
	window := 7 * 24 * time.Hour
	events := []models.TradeEvent{
		ev("ZZZ", "alice", 1, 200_000),
		ev("AAA", "bob", 1, 200_000),
	}
	got := RecentActivity(events, asOf, window, 1, 0, nil)
	if len(got) != 2 || got[0].Symbol != "AAA" || got[1].Symbol != "ZZZ" {
		t.Fatalf("ties must order by symbol ascending: %v", got)
	}
}
