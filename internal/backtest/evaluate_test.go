package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"InsiderScan/internal/domain/models"
)

func session(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Five consecutive trading sessions around a weekend gap.
func testSeries() []models.PriceBar {
	return []models.PriceBar{
		{Session: session(2024, 3, 1), Open: 100, AdjClose: 101}, // Fri
		{Session: session(2024, 3, 4), Open: 102, AdjClose: 103}, // Mon
		{Session: session(2024, 3, 5), Open: 104, AdjClose: 105},
		{Session: session(2024, 3, 6), Open: 106, AdjClose: 107},
		{Session: session(2024, 3, 7), Open: 108, AdjClose: 110},
	}
}

func TestEntrySessionSameDay(t *testing.T) {
	// A signal during the session still enters at that session's open.
	sig := time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC)
	idx, err := EntrySession(testSeries(), sig)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected same-day entry at index 1, got %d", idx)
	}
}

func TestEntrySessionSkipsNonTradingDays(t *testing.T) {
	// Saturday signal rolls to Monday.
	sig := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	idx, err := EntrySession(testSeries(), sig)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected Monday entry at index 1, got %d", idx)
	}
}

func TestEntrySessionAfterLastBar(t *testing.T) {
	sig := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	if _, err := EntrySession(testSeries(), sig); !errors.Is(err, ErrNoTradableSession) {
		t.Fatalf("expected ErrNoTradableSession, got %v", err)
	}
}

func TestEvaluateReturns(t *testing.T) {
	sig := models.Signal{Symbol: "ABC", EventTime: session(2024, 3, 1)}
	res, err := Evaluate(sig, testSeries(), []int{1, 3}, 20)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.EntrySession.Equal(session(2024, 3, 1)) {
		t.Fatalf("wrong entry session %v", res.EntrySession)
	}

	// entry open 100; h=1 exits at adjclose 103, h=3 exits at adjclose 107.
	wantRaw1 := 103.0/100.0 - 1.0
	wantRaw3 := 107.0/100.0 - 1.0
	if math.Abs(res.Returns[1]-wantRaw1) > 1e-12 {
		t.Fatalf("h=1 raw return %v, want %v", res.Returns[1], wantRaw1)
	}
	if math.Abs(res.Returns[3]-wantRaw3) > 1e-12 {
		t.Fatalf("h=3 raw return %v, want %v", res.Returns[3], wantRaw3)
	}
	cost := 20.0 / BPSDivisor
	if math.Abs(res.NetReturns[1]-(wantRaw1-cost)) > 1e-12 {
		t.Fatalf("h=1 net return %v", res.NetReturns[1])
	}
	if len(res.Missing) != 0 {
		t.Fatalf("unexpected missing horizons %v", res.Missing)
	}
}

func TestEvaluateZeroCostRoundTrip(t *testing.T) {
	sig := models.Signal{Symbol: "ABC", EventTime: session(2024, 3, 1)}
	res, err := Evaluate(sig, testSeries(), []int{2}, 0)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Returns[2] != res.NetReturns[2] {
		t.Fatalf("zero cost must leave returns untouched: %v vs %v", res.Returns[2], res.NetReturns[2])
	}
}

func TestEvaluateMissingHorizon(t *testing.T) {
	sig := models.Signal{Symbol: "ABC", EventTime: session(2024, 3, 6)}
	res, err := Evaluate(sig, testSeries(), []int{1, 10}, 20)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Computable(1) {
		t.Fatalf("h=1 should be computable")
	}
	if res.Computable(10) {
		t.Fatalf("h=10 extends past the series and must be missing")
	}
	if len(res.Missing) != 1 || res.Missing[0] != 10 {
		t.Fatalf("missing list wrong: %v", res.Missing)
	}
	if _, ok := res.Returns[10]; ok {
		t.Fatalf("missing horizon must not appear as a value")
	}
}

func TestEvaluateGappedSeries(t *testing.T) {
	// Horizons count session positions, so a calendar gap between bars does
	// not stretch or shrink the exit.
	series := []models.PriceBar{
		{Session: session(2024, 3, 11), Open: 10, AdjClose: 10.5},
		{Session: session(2024, 3, 12), Open: 11, AdjClose: 11},
		{Session: session(2024, 3, 16), Open: 12, AdjClose: 12},
	}
	sig := models.Signal{Symbol: "ABC", EventTime: session(2024, 3, 11)}
	res, err := Evaluate(sig, series, []int{1, 10}, 0)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.EntrySession.Equal(session(2024, 3, 11)) {
		t.Fatalf("wrong entry session %v", res.EntrySession)
	}
	if math.Abs(res.Returns[1]-0.10) > 1e-12 {
		t.Fatalf("h=1 raw return %v, want 0.10", res.Returns[1])
	}
	if res.Computable(10) {
		t.Fatalf("h=10 has no session 10 positions ahead")
	}
	if len(res.Missing) != 1 || res.Missing[0] != 10 {
		t.Fatalf("missing list wrong: %v", res.Missing)
	}
}

func TestEvaluateNegativeCostRejected(t *testing.T) {
	sig := models.Signal{Symbol: "ABC", EventTime: session(2024, 3, 1)}
	if _, err := Evaluate(sig, testSeries(), []int{1}, -1); err == nil {
		t.Fatalf("expected error for negative cost")
	}
}

func TestEvaluateAllCountsUnevaluable(t *testing.T) {
	signals := []models.Signal{
		{Symbol: "ABC", EventTime: session(2024, 3, 1)},
		{Symbol: "ABC", EventTime: session(2024, 3, 20)}, // after last bar
		{Symbol: "XYZ", EventTime: session(2024, 3, 1)},  // no prices at all
	}
	series := func(symbol string) []models.PriceBar {
		if symbol == "ABC" {
			return testSeries()
		}
		return nil
	}

	rep, err := EvaluateAll(signals, series, []int{1}, 20)
	if err != nil {
		t.Fatalf("evaluate all: %v", err)
	}
	if len(rep.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(rep.Results))
	}
	if rep.Unevaluable != 2 {
		t.Fatalf("expected 2 unevaluable, got %d", rep.Unevaluable)
	}
	if len(rep.Summaries) != 1 || rep.Summaries[0].Horizon != 1 {
		t.Fatalf("summaries missing: %v", rep.Summaries)
	}
}

func TestEvaluateAllEmptyInput(t *testing.T) {
	rep, err := EvaluateAll(nil, func(string) []models.PriceBar { return nil }, []int{5}, 20)
	if err != nil {
		t.Fatalf("evaluate all: %v", err)
	}
	if len(rep.Results) != 0 || rep.Unevaluable != 0 {
		t.Fatalf("empty input must yield empty report: %+v", rep)
	}
}
