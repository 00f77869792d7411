package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"InsiderScan/internal/domain/models"
)

// Rows flattens evaluation results into one row per (signal, horizon).
// Not-computable horizons keep their row with nil returns so nothing is
// dropped silently from the report.
func Rows(results []models.EvaluationResult, horizons []int) []models.ReportRow {
	hs := make([]int, len(horizons))
	copy(hs, horizons)
	sort.Ints(hs)

	rows := make([]models.ReportRow, 0, len(results)*len(hs))
	for _, r := range results {
		for _, h := range hs {
			row := models.ReportRow{
				Symbol:       r.Symbol,
				SignalTime:   r.SignalTime,
				EntrySession: r.EntrySession,
				HorizonDays:  h,
			}
			if v, ok := r.Returns[h]; ok {
				ret := v
				row.Return = &ret
			}
			if v, ok := r.NetReturns[h]; ok {
				net := v
				row.NetReturn = &net
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteCSV writes the flat tabular report. Missing values render as empty
// cells, distinguishable from a genuine zero return.
func WriteCSV(w io.Writer, rows []models.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"symbol", "signal_time", "entry_session", "horizon_days", "return", "net_return"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Symbol,
			r.SignalTime.UTC().Format(time.RFC3339),
			r.EntrySession.UTC().Format("2006-01-02"),
			strconv.Itoa(r.HorizonDays),
			formatReturn(r.Return),
			formatReturn(r.NetReturn),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatReturn(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
