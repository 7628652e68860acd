package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/searchlite/searchlite/pkg/config"
	"github.com/searchlite/searchlite/pkg/logger"
)

// IndexedEvent is published after each successful index operation.
type IndexedEvent struct {
	DocID     uint64    `json:"doc_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Producer publishes document events.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer creates a Producer on the document-events topic.
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topics.DocumentEvents,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{
		writer: w,
		logger: logger.WithComponent("ingest-producer").With("topic", cfg.Topics.DocumentEvents),
	}
}

// PublishIndexed emits one IndexedEvent, keyed by document id for
// partition affinity.
func (p *Producer) PublishIndexed(ctx context.Context, docID uint64) error {
	value, err := json.Marshal(IndexedEvent{DocID: docID, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshaling indexed event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(docID, 10)),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing indexed event: %w", err)
	}
	p.logger.Debug("indexed event published", "doc_id", docID)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
