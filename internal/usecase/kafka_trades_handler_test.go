package usecase

import (
	"context"
	"testing"

	"InsiderScan/internal/store"
)

const tradesMessage = `{
  "trades": [
    {
      "symbol": "abc",
      "actor": "Alice A",
      "shares": 1000,
      "price": 50,
      "scheduled_plan": false,
      "filing_time": "2024-03-10T21:10:00Z",
      "transaction_time": "2024-03-08T00:00:00Z",
      "source_ref": "https://example.com/f1.xml"
    },
    {
      "symbol": "abc",
      "actor": "Bob B",
      "shares": 200,
      "price": 40,
      "scheduled_plan": true,
      "filing_time": "2024-03-10T21:11:00Z",
      "transaction_time": "2024-03-09T00:00:00Z",
      "source_ref": "https://example.com/f2.xml"
    }
  ]
}`

func TestTradesHandlerIngestsBatch(t *testing.T) {
	s := store.NewMemoryStore()
	proc := NewEventProcessor(s, nil, nopMetrics{}, "test")
	h := NewKafkaTradesHandler("insider.trades", proc, nopMetrics{}, "filing")

	if h.Topic() != "insider.trades" {
		t.Fatalf("topic %q", h.Topic())
	}
	if err := h.Handle(context.Background(), []byte(tradesMessage)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 events stored, got %d", s.Len())
	}

	events, err := s.Events(context.Background())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if events[0].Symbol != "ABC" {
		t.Fatalf("symbol not normalized: %q", events[0].Symbol)
	}
	if events[0].EventTime.Format("2006-01-02") != "2024-03-10" {
		t.Fatalf("filing time not selected: %v", events[0].EventTime)
	}
}

func TestTradesHandlerTransactionTimeField(t *testing.T) {
	s := store.NewMemoryStore()
	proc := NewEventProcessor(s, nil, nopMetrics{}, "test")
	h := NewKafkaTradesHandler("insider.trades", proc, nopMetrics{}, "transaction")

	if err := h.Handle(context.Background(), []byte(tradesMessage)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	events, err := s.Events(context.Background())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if events[0].EventTime.Format("2006-01-02") != "2024-03-08" {
		t.Fatalf("transaction time not selected: %v", events[0].EventTime)
	}
}

func TestTradesHandlerRejectsGarbage(t *testing.T) {
	s := store.NewMemoryStore()
	proc := NewEventProcessor(s, nil, nopMetrics{}, "test")
	h := NewKafkaTradesHandler("insider.trades", proc, nopMetrics{}, "filing")

	if err := h.Handle(context.Background(), []byte("not json")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if s.Len() != 0 {
		t.Fatalf("garbage must not reach the store")
	}
}

func TestTradesHandlerReplayIsIdempotent(t *testing.T) {
	s := store.NewMemoryStore()
	proc := NewEventProcessor(s, nil, nopMetrics{}, "test")
	h := NewKafkaTradesHandler("insider.trades", proc, nopMetrics{}, "filing")

	for i := 0; i < 3; i++ {
		if err := h.Handle(context.Background(), []byte(tradesMessage)); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	if s.Len() != 2 {
		t.Fatalf("replays must dedupe, got %d events", s.Len())
	}
}
