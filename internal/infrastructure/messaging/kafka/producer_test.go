package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	skafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/id"
	"invoicer/internal/infrastructure/storage/postgres"
)

type fakeWriter struct {
	msgs []skafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...skafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestProducer_Handle(t *testing.T) {
	fw := &fakeWriter{}
	p := NewProducerWithWriter(fw)

	msg := &postgres.OutboxMessage{
		ID:          id.New(),
		AggregateID: id.New(),
		EventType:   "invoice.created",
		Payload:     []byte(`{"number":"ACM-ROB-001"}`),
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Handle(context.Background(), msg))

	require.Len(t, fw.msgs, 1)
	got := fw.msgs[0]
	assert.Equal(t, msg.AggregateID.String(), string(got.Key))
	assert.Equal(t, msg.Payload, got.Value)
	assert.Equal(t, msg.CreatedAt, got.Time)
	assert.Contains(t, got.Headers, skafka.Header{Key: HeaderEventType, Value: []byte("invoice.created")})
}

func TestProducer_HandleError(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{err: errors.New("broker down")})
	err := p.Handle(context.Background(), &postgres.OutboxMessage{EventType: "invoice.deleted"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
