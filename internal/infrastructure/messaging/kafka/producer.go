// Package kafka delivers outbox messages to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"time"

	skafka "github.com/segmentio/kafka-go"

	"invoicer/internal/infrastructure/storage/postgres"
)

// Header names set on every produced message.
const (
	HeaderEventType = "event-type"
	HeaderMessageID = "message-id"
)

// Writer is the subset of kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Producer writes outbox messages to Kafka, keyed by aggregate so the
// events of one invoice stay ordered within a partition.
type Producer struct {
	writer Writer
}

var _ postgres.OutboxHandler = (*Producer)(nil)

// NewProducer creates a producer for topic on brokers.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{writer: &skafka.Writer{
		Addr:         skafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &skafka.Hash{},
		RequiredAcks: skafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// NewProducerWithWriter allows injecting a test writer.
func NewProducerWithWriter(w Writer) *Producer {
	return &Producer{writer: w}
}

// Handle implements postgres.OutboxHandler.
func (p *Producer) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	m := skafka.Message{
		Key:   []byte(msg.AggregateID.String()),
		Value: msg.Payload,
		Time:  msg.CreatedAt,
		Headers: []skafka.Header{
			{Key: HeaderEventType, Value: []byte(msg.EventType)},
			{Key: HeaderMessageID, Value: []byte(msg.ID.String())},
		},
	}
	if err := p.writer.WriteMessages(ctx, m); err != nil {
		return fmt.Errorf("kafka write %s: %w", msg.EventType, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
