package usecase

import (
	"context"
	"testing"
	"time"

	"InsiderScan/internal/domain/models"
	"InsiderScan/internal/store"
	"InsiderScan/pkg/config"
)

type nopMetrics struct{}

func (nopMetrics) RecordEventsIngested(string, int)  {}
func (nopMetrics) RecordEventsDuplicate(string, int) {}
func (nopMetrics) RecordEventsDropped(string, int)   {}
func (nopMetrics) RecordSignals(int)                 {}
func (nopMetrics) RecordEvaluation(string)           {}
func (nopMetrics) RecordError(string)                {}
func (nopMetrics) RecordLatency(string, float64)     {}

func testConfig() *config.Config {
	cfg := &config.Config{Environment: "test"}
	cfg.Scan.WindowDays = 14
	cfg.Scan.MinActors = 3
	cfg.Scan.MinNotional = 300_000
	cfg.Backtest.Horizons = []int{5, 21, 63}
	cfg.Backtest.CostBPS = 20
	cfg.Alerts.Days = 7
	cfg.Ingest.TimeField = "filing"
	return cfg
}

func tradeAt(symbol, actor string, day int, notional float64) models.TradeEvent {
	return models.TradeEvent{
		Symbol:    symbol,
		Actor:     actor,
		Shares:    notional / 10,
		Price:     10,
		EventTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		SourceRef: symbol + actor,
	}
}

func seededRunner(t *testing.T) *ScanRunner {
	t.Helper()
	s := store.NewMemoryStore()
	events := []models.TradeEvent{
		tradeAt("ABC", "alice", 0, 200_000),
		tradeAt("ABC", "bob", 3, 150_000),
		tradeAt("ABC", "carol", 10, 100_000),
		tradeAt("XYZ", "dave", 5, 50_000),
	}
	if _, _, err := s.Append(context.Background(), events); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return NewScanRunner(s, nopMetrics{}, nil, testConfig())
}

func TestScanRunnerRun(t *testing.T) {
	r := seededRunner(t)

	signals, err := r.Run(context.Background(), models.ScanRequest{
		WindowDays:  14,
		MinActors:   3,
		MinNotional: 300_000,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(signals) != 1 || signals[0].Symbol != "ABC" {
		t.Fatalf("unexpected signals %v", signals)
	}
}

func TestScanRunnerLatestSnapshot(t *testing.T) {
	r := seededRunner(t)
	ctx := context.Background()

	if got := r.Latest(models.SignalsRequest{Limit: 10}); len(got) != 0 {
		t.Fatalf("snapshot before any run must be empty, got %v", got)
	}

	if _, err := r.Run(ctx, models.ScanRequest{WindowDays: 14, MinActors: 3, MinNotional: 300_000}); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := r.Latest(models.SignalsRequest{Limit: 10})
	if len(got) != 1 {
		t.Fatalf("expected snapshot of 1, got %d", len(got))
	}
	if got := r.Latest(models.SignalsRequest{Symbol: "XYZ", Limit: 10}); len(got) != 0 {
		t.Fatalf("symbol filter failed: %v", got)
	}
}

func TestScanRunnerRequestOverridesConfig(t *testing.T) {
	r := seededRunner(t)

	// Looser thresholds from the request surface more signals.
	signals, err := r.Run(context.Background(), models.ScanRequest{
		WindowDays:  14,
		MinActors:   1,
		MinNotional: 10_000,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("expected signals for both symbols, got %v", signals)
	}
}

func TestScanRunnerAlerts(t *testing.T) {
	r := seededRunner(t)

	// All events are in the past relative to now, so only a huge window sees them.
	alerts, err := r.Alerts(context.Background(), models.AlertsRequest{Days: 7, MinActors: 1, MinNotional: 0})
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("stale events must not alert, got %v", alerts)
	}

	alerts, err = r.Alerts(context.Background(), models.AlertsRequest{Days: 36500, MinActors: 3, MinNotional: 300_000})
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Symbol != "ABC" {
		t.Fatalf("unexpected alerts %v", alerts)
	}
}
