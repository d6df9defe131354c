// Package consumer forwards session events from Kafka to a log sink such as Loki.
package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const pushTimeout = 10 * time.Second

// messageReader is the subset of *kafka.Reader used by Consumer.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Sink receives raw event payloads (e.g. *loki.Client).
type Sink interface {
	PushEventJSON(ctx context.Context, raw []byte) error
}

// Consumer reads events from a topic and pushes each one to a Sink.
// Offsets are committed by the reader's group; a failed push is logged and skipped.
type Consumer struct {
	reader messageReader
	sink   Sink
	logger *slog.Logger
}

// NewKafkaConsumer returns a Consumer reading topic as groupID.
func NewKafkaConsumer(brokers []string, topic, groupID string, sink Sink, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	return newConsumer(reader, sink, logger)
}

func newConsumer(r messageReader, sink Sink, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{reader: r, sink: sink, logger: logger}
}

// Run consumes until ctx is done. It returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.WarnContext(ctx, "consumer: kafka read error", "error", err)
			continue
		}
		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		if err := c.sink.PushEventJSON(pushCtx, msg.Value); err != nil {
			c.logger.WarnContext(ctx, "consumer: push failed", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
		cancel()
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
