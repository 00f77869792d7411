package backtest

import (
	"sort"

	"InsiderScan/internal/domain/models"
)

// Summarize aggregates net returns per horizon over non-missing values only:
// mean, median, hit-rate and sample size. A horizon with zero samples is
// flagged NoData instead of propagating NaN into downstream summaries.
func Summarize(results []models.EvaluationResult, horizons []int) []models.HorizonSummary {
	hs := make([]int, len(horizons))
	copy(hs, horizons)
	sort.Ints(hs)

	out := make([]models.HorizonSummary, 0, len(hs))
	for _, h := range hs {
		var vals []float64
		for _, r := range results {
			if v, ok := r.NetReturns[h]; ok {
				vals = append(vals, v)
			}
		}
		s := models.HorizonSummary{Horizon: h, N: len(vals)}
		if len(vals) == 0 {
			s.NoData = true
			out = append(out, s)
			continue
		}
		sort.Float64s(vals)
		var sum float64
		hits := 0
		for _, v := range vals {
			sum += v
			if v > 0 {
				hits++
			}
		}
		s.Mean = sum / float64(len(vals))
		s.Median = median(vals)
		s.HitRate = float64(hits) / float64(len(vals))
		out = append(out, s)
	}
	return out
}

// median expects vals sorted ascending.
func median(vals []float64) float64 {
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
