package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"InsiderScan/internal/domain/models"
)

func sampleResult() models.EvaluationResult {
	return models.EvaluationResult{
		Symbol:       "ABC",
		SignalTime:   time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC),
		EntrySession: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		Returns:      map[int]float64{5: 0.05},
		NetReturns:   map[int]float64{5: 0.048},
		Missing:      []int{21},
	}
}

func TestRowsOnePerHorizon(t *testing.T) {
	rows := Rows([]models.EvaluationResult{sampleResult()}, []int{21, 5})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].HorizonDays != 5 || rows[1].HorizonDays != 21 {
		t.Fatalf("horizons must ascend: %v %v", rows[0].HorizonDays, rows[1].HorizonDays)
	}
	if rows[0].Return == nil || *rows[0].Return != 0.05 {
		t.Fatalf("computable horizon lost its value: %+v", rows[0])
	}
	if rows[1].Return != nil || rows[1].NetReturn != nil {
		t.Fatalf("missing horizon must carry nil returns: %+v", rows[1])
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := Rows([]models.EvaluationResult{sampleResult()}, []int{5, 21})
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "symbol" || records[0][5] != "net_return" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][1] != "2024-03-10T14:00:00Z" {
		t.Fatalf("signal time format %q", records[1][1])
	}
	if records[1][2] != "2024-03-11" {
		t.Fatalf("entry session format %q", records[1][2])
	}
	if records[1][4] != "0.050000" {
		t.Fatalf("return format %q", records[1][4])
	}
	if records[2][4] != "" || records[2][5] != "" {
		t.Fatalf("missing horizon must render empty cells: %v", records[2])
	}
}
