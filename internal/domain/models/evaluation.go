package models

import "time"

// PriceBar is one daily session supplied by the price data provider.
// Series are ascending by Session; non-trading days are simply absent.
type PriceBar struct {
	Session  time.Time `json:"session"` // session date, UTC midnight
	Open     float64   `json:"open"`
	AdjClose float64   `json:"adj_close"`
}

// EvaluationResult holds cost-adjusted forward returns for one signal.
// Horizons that could not be computed appear in Missing, never as zeros.
type EvaluationResult struct {
	Symbol       string          `json:"symbol"`
	SignalTime   time.Time       `json:"signal_time"`
	EntrySession time.Time       `json:"entry_session"`
	Returns      map[int]float64 `json:"returns"`     // horizon sessions -> raw return
	NetReturns   map[int]float64 `json:"net_returns"` // raw - cost_bps/10000
	Missing      []int           `json:"missing,omitempty"`
}

// Computable reports whether horizon h produced a return.
func (r EvaluationResult) Computable(h int) bool {
	_, ok := r.Returns[h]
	return ok
}

// HorizonSummary aggregates net returns across evaluation results for one
// horizon, over non-missing values only.
type HorizonSummary struct {
	Horizon int     `json:"horizon"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	HitRate float64 `json:"hit_rate"`
	N       int     `json:"n"`
	NoData  bool    `json:"no_data,omitempty"`
}

// BacktestReport is the evaluator's output: per-signal rows plus per-horizon
// summaries and the count of signals that could not be aligned to prices.
type BacktestReport struct {
	Results     []EvaluationResult `json:"results"`
	Summaries   []HorizonSummary   `json:"summaries"`
	Unevaluable int                `json:"unevaluable"`
}

// ReportRow is one flat line of the tabular reporting sink: one row per
// (signal, horizon).
type ReportRow struct {
	Symbol       string
	SignalTime   time.Time
	EntrySession time.Time
	HorizonDays  int
	Return       *float64 // nil when not computable
	NetReturn    *float64
}
