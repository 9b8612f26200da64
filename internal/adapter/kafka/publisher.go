// Package kafka publishes the accepted canonical records of a run to a Kafka
// topic for downstream consumers. Publishing is opt-in and happens after
// artifacts are written; the files on disk stay the source of truth.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
)

// Publisher produces canonical records to a Kafka topic. It implements
// pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured output topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishBatch serializes and publishes the records in a single WriteMessages
// call. The dedup key is the message key, so compacted topics retain one
// message per incident.
func (p *Publisher) PublishBatch(ctx context.Context, records []domain.CanonicalRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	p.logger.Info("records published", "count", len(records), "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a canonical record into a Kafka message.
func serializeToMessage(rec domain.CanonicalRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %s: %w", rec.Source.String(), err)
	}
	return kafkago.Message{
		Key:   []byte(rec.DedupKey()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "damage_level", Value: []byte(rec.Damage)},
			{Key: "year", Value: []byte(strconv.Itoa(rec.Year))},
		},
	}, nil
}
