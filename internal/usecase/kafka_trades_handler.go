package usecase

import (
	"context"
	"encoding/json"

	"InsiderScan/internal/domain/models"
	drepo "InsiderScan/internal/domain/repository"
	pkgkafka "InsiderScan/pkg/kafka"
	"InsiderScan/pkg/util"
)

// KafkaTradesHandler consumes normalized trade events published by the batch
// backfill adapter and routes them through the processor.
type KafkaTradesHandler struct {
	topic     string
	proc      *EventProcessor
	metrics   drepo.Metrics
	timeField string // "filing" or "transaction", resolved once at startup
}

func NewKafkaTradesHandler(topic string, proc *EventProcessor, metrics drepo.Metrics, timeField string) *KafkaTradesHandler {
	return &KafkaTradesHandler{topic: topic, proc: proc, metrics: metrics, timeField: timeField}
}

func (h *KafkaTradesHandler) Topic() string { return h.topic }

// incoming message schema mirrors the feed frames: one filing, many rows.
func (h *KafkaTradesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Trades []struct {
			Symbol          string  `json:"symbol"`
			Actor           string  `json:"actor"`
			Shares          float64 `json:"shares"`
			Price           float64 `json:"price"`
			ScheduledPlan   bool    `json:"scheduled_plan"`
			FilingTime      string  `json:"filing_time"`
			TransactionTime string  `json:"transaction_time"`
			SourceRef       string  `json:"source_ref"`
		} `json:"trades"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	events := make([]models.TradeEvent, 0, len(m.Trades))
	for _, t := range m.Trades {
		raw := t.FilingTime
		if h.timeField == "transaction" {
			raw = t.TransactionTime
		}
		ts, _ := util.ParseTime(raw)
		events = append(events, models.TradeEvent{
			Symbol:        t.Symbol,
			Actor:         t.Actor,
			Shares:        t.Shares,
			Price:         t.Price,
			ScheduledPlan: t.ScheduledPlan,
			EventTime:     ts.UTC(),
			SourceRef:     t.SourceRef,
		})
	}
	if err := h.proc.ProcessBatch(ctx, events); err != nil {
		h.metrics.RecordError("consumer_process")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTradesHandler)(nil)
