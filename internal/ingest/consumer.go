// Package ingest feeds the engine from Kafka: a consumer reads document
// JSON from the ingest topic and indexes it through the public surface, and
// a producer emits indexed-document events for downstream consumers.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/searchlite/searchlite"
	"github.com/searchlite/searchlite/pkg/config"
	"github.com/searchlite/searchlite/pkg/logger"
)

// Consumer indexes documents arriving on the ingest topic.
type Consumer struct {
	reader   *kafka.Reader
	engine   *searchlite.Engine
	producer *Producer
	logger   *slog.Logger
}

// NewConsumer creates a Consumer. producer may be nil to skip event
// publication.
func NewConsumer(cfg config.KafkaConfig, engine *searchlite.Engine, producer *Producer) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topics.DocumentIngest,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{
		reader:   r,
		engine:   engine,
		producer: producer,
		logger:   logger.WithComponent("ingest-consumer").With("topic", cfg.Topics.DocumentIngest),
	}
}

// Start enters the consume loop, fetching and indexing messages until ctx
// is cancelled. Malformed messages are logged and committed so they do not
// wedge the partition.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", "reason", ctx.Err())
			return c.reader.Close()
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return c.reader.Close()
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		if err := c.handle(ctx, msg.Value); err != nil {
			c.logger.Error("failed to process message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, value []byte) error {
	var doc searchlite.Document
	if err := json.Unmarshal(value, &doc); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	if len(doc.Fields) == 0 {
		return fmt.Errorf("document has no fields")
	}
	id := c.engine.IndexDocument(doc)
	c.logger.Debug("document indexed from kafka", "doc_id", id)
	if c.producer != nil {
		if err := c.producer.PublishIndexed(ctx, id); err != nil {
			c.logger.Error("failed to publish indexed event", "doc_id", id, "error", err)
		}
	}
	return nil
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
