// Package kafka publishes operation lifecycle events to a Kafka topic for
// downstream consumers (situational dashboards, audit). Publishing is
// best-effort: the orchestrator logs failures and moves on.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/floodwatch/opsconsole/internal/config"
	"github.com/floodwatch/opsconsole/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces operation events to the events topic.
// It implements orchestrator.EventSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured events topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishOperation serializes and publishes one terminal operation event.
// Events for the same operation share a key, so replays stay ordered per
// operation.
func (w *Writer) PublishOperation(ctx context.Context, ev domain.OperationEvent) error {
	msg, err := serializeToMessage(ev)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an OperationEvent into a Kafka message.
func serializeToMessage(ev domain.OperationEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize operation event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(ev.Mode)},
			{Key: "outcome", Value: []byte(ev.Outcome)},
			{Key: "occurred_at", Value: []byte(ev.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
