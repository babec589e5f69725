package repository

import (
	"context"

	"StockRank/internal/domain/models"
	pkgkafka "StockRank/pkg/kafka"
)

// KafkaSnapshotPublisher emits refreshed snapshots to a Kafka topic, keyed by
// symbol so per-symbol ordering survives partitioning.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSnapshotPublisher wraps a producer for the given topic.
func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

// PublishBatch sends one message per snapshot.
func (p *KafkaSnapshotPublisher) PublishBatch(ctx context.Context, snaps []*models.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	msgs := make([]pkgkafka.Message, 0, len(snaps))
	for _, s := range snaps {
		if s == nil || s.Symbol == "" {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(s.Symbol),
			Value: s,
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// Close closes the underlying producer.
func (p *KafkaSnapshotPublisher) Close() error {
	return p.producer.Close()
}
