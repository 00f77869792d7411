package backtest

import (
	"math"
	"testing"

	"InsiderScan/internal/domain/models"
)

func resultWithNet(h int, v float64) models.EvaluationResult {
	return models.EvaluationResult{
		Returns:    map[int]float64{h: v},
		NetReturns: map[int]float64{h: v},
	}
}

func TestSummarizeStats(t *testing.T) {
	results := []models.EvaluationResult{
		resultWithNet(5, 0.10),
		resultWithNet(5, -0.05),
		resultWithNet(5, 0.01),
	}
	sums := Summarize(results, []int{5})
	if len(sums) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(sums))
	}
	s := sums[0]
	if s.N != 3 || s.NoData {
		t.Fatalf("unexpected sample count %+v", s)
	}
	if math.Abs(s.Mean-0.02) > 1e-12 {
		t.Fatalf("mean %v", s.Mean)
	}
	if s.Median != 0.01 {
		t.Fatalf("median %v", s.Median)
	}
	if math.Abs(s.HitRate-2.0/3.0) > 1e-12 {
		t.Fatalf("hit rate %v", s.HitRate)
	}
}

func TestSummarizeEvenMedian(t *testing.T) {
	results := []models.EvaluationResult{
		resultWithNet(5, 0.04),
		resultWithNet(5, 0.02),
	}
	sums := Summarize(results, []int{5})
	if sums[0].Median != 0.03 {
		t.Fatalf("median %v", sums[0].Median)
	}
}

func TestSummarizeSkipsMissing(t *testing.T) {
	results := []models.EvaluationResult{
		resultWithNet(5, 0.10),
		{Returns: map[int]float64{}, NetReturns: map[int]float64{}, Missing: []int{5}},
	}
	sums := Summarize(results, []int{5})
	if sums[0].N != 1 {
		t.Fatalf("missing horizons must not count as samples: %+v", sums[0])
	}
}

func TestSummarizeNoData(t *testing.T) {
	sums := Summarize(nil, []int{5, 21})
	if len(sums) != 2 {
		t.Fatalf("expected summaries for every horizon, got %d", len(sums))
	}
	for _, s := range sums {
		if !s.NoData || s.N != 0 {
			t.Fatalf("expected NoData summary, got %+v", s)
		}
		if s.Mean != 0 || s.Median != 0 || s.HitRate != 0 {
			t.Fatalf("NoData summary must not carry values: %+v", s)
		}
	}
}

func TestSummarizeHorizonOrder(t *testing.T) {
	sums := Summarize(nil, []int{63, 5, 21})
	if sums[0].Horizon != 5 || sums[1].Horizon != 21 || sums[2].Horizon != 63 {
		t.Fatalf("horizons must ascend: %v", sums)
	}
}
