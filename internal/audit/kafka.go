package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes audit records to a Kafka topic, keyed by
// resource ID so records for one resource stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a Kafka-backed audit publisher.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &KafkaPublisher{writer: w}
}

// Publish writes the record to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.ResourceID),
		Value: b,
	})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// LogPublisher writes audit records to the application log. It is the
// fallback when no Kafka brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a log-backed audit publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the record.
func (p *LogPublisher) Publish(ctx context.Context, rec Record) error {
	p.logger.Info("audit",
		"action", rec.ActionType,
		"actor", rec.ActorID,
		"resource_type", rec.ResourceType,
		"resource_id", rec.ResourceID,
	)
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = (*LogPublisher)(nil)
)
