package repository

import (
	"context"

	"InsiderScan/internal/domain/models"
	domrepo "InsiderScan/internal/domain/repository"
	pkgkafka "InsiderScan/pkg/kafka"
)

// KafkaSignalPublisher pushes emitted signals to the signals topic, keyed by
// symbol so per-symbol ordering survives partitioning.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a Kafka signal publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) domrepo.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, s := range signals {
		msgs[i] = pkgkafka.Message{
			Key: []byte(s.Symbol),
			Value: map[string]interface{}{
				"symbol":          s.Symbol,
				"event_time":      s.EventTime,
				"distinct_actors": s.DistinctActors,
				"total_notional":  s.TotalNotional,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
