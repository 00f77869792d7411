package backtest

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"InsiderScan/internal/domain/models"
)

// ErrNoTradableSession means the price series ends before the signal date:
// the signal is unevaluable, not silently omitted.
var ErrNoTradableSession = errors.New("backtest: no tradable session at or after signal")

// BPSDivisor converts basis points to a fraction.
const BPSDivisor = 10000.0

// EntrySession locates the first session at or after the signal's calendar
// date by binary search; same-day execution at the open is allowed. The
// series must be ascending by session date.
func EntrySession(series []models.PriceBar, signalTime time.Time) (int, error) {
	day := signalTime.UTC().Truncate(24 * time.Hour)
	idx := sort.Search(len(series), func(i int) bool {
		return !series[i].Session.Before(day)
	})
	if idx >= len(series) {
		return 0, ErrNoTradableSession
	}
	return idx, nil
}

// Evaluate computes cost-adjusted forward returns for one signal. Horizons
// are counts of trading sessions past the entry session, not calendar days.
// Entry uses the session open, exit uses the adjusted close: this asymmetry
// models buying at the open and marking the exit adjusted for corporate
// actions. A horizon whose exit session does not exist is recorded in
// Missing, never imputed as zero.
func Evaluate(sig models.Signal, series []models.PriceBar, horizons []int, costBPS float64) (models.EvaluationResult, error) {
	res := models.EvaluationResult{
		Symbol:     sig.Symbol,
		SignalTime: sig.EventTime,
		Returns:    make(map[int]float64, len(horizons)),
		NetReturns: make(map[int]float64, len(horizons)),
	}
	if costBPS < 0 {
		return res, fmt.Errorf("backtest: cost_bps must be >= 0, got %v", costBPS)
	}

	entry, err := EntrySession(series, sig.EventTime)
	if err != nil {
		return res, err
	}
	res.EntrySession = series[entry].Session
	entryOpen := series[entry].Open

	hs := make([]int, len(horizons))
	copy(hs, horizons)
	sort.Ints(hs)

	cost := costBPS / BPSDivisor
	for _, h := range hs {
		exit := entry + h
		if exit >= len(series) {
			res.Missing = append(res.Missing, h)
			continue
		}
		raw := series[exit].AdjClose/entryOpen - 1.0
		res.Returns[h] = raw
		res.NetReturns[h] = raw - cost
	}
	return res, nil
}

// EvaluateAll runs Evaluate over a signal set, counting signals that could
// not be aligned rather than dropping them silently, and attaches per-horizon
// summaries. Empty input is a valid terminal state and yields an empty report.
func EvaluateAll(signals []models.Signal, series func(symbol string) []models.PriceBar, horizons []int, costBPS float64) (models.BacktestReport, error) {
	report := models.BacktestReport{}
	for _, sig := range signals {
		px := series(sig.Symbol)
		if len(px) == 0 {
			report.Unevaluable++
			continue
		}
		res, err := Evaluate(sig, px, horizons, costBPS)
		if err != nil {
			if errors.Is(err, ErrNoTradableSession) {
				report.Unevaluable++
				continue
			}
			return report, err
		}
		report.Results = append(report.Results, res)
	}
	report.Summaries = Summarize(report.Results, horizons)
	return report, nil
}
