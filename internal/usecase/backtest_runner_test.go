package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"InsiderScan/internal/domain/models"
)

// stubPrices serves a fixed series per symbol and counts provider hits so the
// cache path can be asserted.
type stubPrices struct {
	mu     sync.Mutex
	series map[string][]models.PriceBar
	calls  map[string]int
	err    error
}

func (p *stubPrices) DailyBars(_ context.Context, symbol string, _, _ time.Time) ([]models.PriceBar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[symbol]++
	if p.err != nil {
		return nil, p.err
	}
	return p.series[symbol], nil
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *mapCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	return b, ok, nil
}

func (c *mapCache) SetBytes(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = make(map[string][]byte)
	}
	c.m[key] = value
	return nil
}

// weekSeries covers 2024-03-11 (Mon) through 2024-03-15 (Fri). The seeded ABC
// cluster crosses on 2024-03-11, so entry is the first bar.
func weekSeries() []models.PriceBar {
	bars := make([]models.PriceBar, 0, 5)
	for i := 0; i < 5; i++ {
		bars = append(bars, models.PriceBar{
			Session:  time.Date(2024, 3, 11+i, 0, 0, 0, 0, time.UTC),
			Open:     100 + float64(2*i),
			AdjClose: 101 + float64(2*i),
		})
	}
	return bars
}

func approx(got, want float64) bool { return math.Abs(got-want) < 1e-12 }

func TestBacktestRunnerRun(t *testing.T) {
	scanner := seededRunner(t)
	prices := &stubPrices{series: map[string][]models.PriceBar{"ABC": weekSeries()}}
	r := NewBacktestRunner(scanner, prices, nil, nopMetrics{}, testConfig())

	rep, err := r.Run(context.Background(), models.BacktestRequest{
		ScanRequest: models.ScanRequest{WindowDays: 14, MinActors: 3, MinNotional: 300_000},
		Horizons:    []int{1, 3},
		CostBPS:     20,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rep.Results) != 1 || rep.Unevaluable != 0 {
		t.Fatalf("results %d unevaluable %d", len(rep.Results), rep.Unevaluable)
	}

	res := rep.Results[0]
	if res.Symbol != "ABC" {
		t.Fatalf("symbol %q", res.Symbol)
	}
	if got := res.EntrySession.Format("2006-01-02"); got != "2024-03-11" {
		t.Fatalf("entry session %s", got)
	}
	if !approx(res.Returns[1], 103.0/100-1) {
		t.Fatalf("return h=1 got %v", res.Returns[1])
	}
	if !approx(res.Returns[3], 107.0/100-1) {
		t.Fatalf("return h=3 got %v", res.Returns[3])
	}
	if !approx(res.NetReturns[1], 103.0/100-1-0.002) {
		t.Fatalf("net return h=1 got %v", res.NetReturns[1])
	}
	if len(res.Missing) != 0 {
		t.Fatalf("unexpected missing horizons %v", res.Missing)
	}

	if len(rep.Summaries) != 2 {
		t.Fatalf("summaries %d", len(rep.Summaries))
	}
	if rep.Summaries[0].Horizon != 1 || rep.Summaries[0].N != 1 {
		t.Fatalf("summary[0] = %+v", rep.Summaries[0])
	}
}

func TestBacktestRunnerMissingHorizon(t *testing.T) {
	scanner := seededRunner(t)
	prices := &stubPrices{series: map[string][]models.PriceBar{"ABC": weekSeries()}}
	r := NewBacktestRunner(scanner, prices, nil, nopMetrics{}, testConfig())

	rep, err := r.Run(context.Background(), models.BacktestRequest{
		ScanRequest: models.ScanRequest{WindowDays: 14, MinActors: 3, MinNotional: 300_000},
		Horizons:    []int{1, 10},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	res := rep.Results[0]
	if _, ok := res.Returns[10]; ok {
		t.Fatalf("horizon 10 must not have a return")
	}
	if len(res.Missing) != 1 || res.Missing[0] != 10 {
		t.Fatalf("missing %v", res.Missing)
	}
}

func TestBacktestRunnerDefaultHorizons(t *testing.T) {
	scanner := seededRunner(t)
	prices := &stubPrices{series: map[string][]models.PriceBar{"ABC": weekSeries()}}
	r := NewBacktestRunner(scanner, prices, nil, nopMetrics{}, testConfig())

	rep, err := r.Run(context.Background(), models.BacktestRequest{
		ScanRequest: models.ScanRequest{WindowDays: 14, MinActors: 3, MinNotional: 300_000},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// config horizons are 5, 21, 63; only a week of bars exists.
	if len(rep.Summaries) != 3 {
		t.Fatalf("summaries %d", len(rep.Summaries))
	}
}

func TestBacktestRunnerProviderFailure(t *testing.T) {
	scanner := seededRunner(t)
	prices := &stubPrices{err: errors.New("provider down")}
	r := NewBacktestRunner(scanner, prices, nil, nopMetrics{}, testConfig())

	rep, err := r.Run(context.Background(), models.BacktestRequest{
		ScanRequest: models.ScanRequest{WindowDays: 14, MinActors: 3, MinNotional: 300_000},
		Horizons:    []int{1},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rep.Results) != 0 || rep.Unevaluable != 1 {
		t.Fatalf("results %d unevaluable %d", len(rep.Results), rep.Unevaluable)
	}
}

func TestBacktestRunnerCachesSeries(t *testing.T) {
	scanner := seededRunner(t)
	prices := &stubPrices{series: map[string][]models.PriceBar{"ABC": weekSeries()}}
	r := NewBacktestRunner(scanner, prices, &mapCache{}, nopMetrics{}, testConfig())

	req := models.BacktestRequest{
		ScanRequest: models.ScanRequest{WindowDays: 14, MinActors: 3, MinNotional: 300_000},
		Horizons:    []int{1},
	}
	first, err := r.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := r.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if prices.calls["ABC"] != 1 {
		t.Fatalf("provider called %d times, cache not used", prices.calls["ABC"])
	}
	if !approx(first.Results[0].Returns[1], second.Results[0].Returns[1]) {
		t.Fatalf("cached run diverged")
	}
}
