package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	_, err := NewKafkaPublisher([]string{" ", ""}, "order-events")
	assert.Error(t, err)

	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "order-events")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w)
	p.clock = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	err := p.Publish(context.Background(), Event{
		Type:           OrderStatusChanged,
		AggregateType:  "order",
		AggregateID:    "order-1",
		PreviousStatus: "cart",
		CurrentStatus:  "pending_payment",
		ActorID:        "cust-1",
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, OrderStatusChanged, string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.NotEmpty(t, decoded.ID)
	assert.Equal(t, "pending_payment", decoded.CurrentStatus)
	assert.True(t, decoded.OccurredAt.Equal(p.clock()))

	assert.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	p := newKafkaPublisher(&fakeWriter{err: errors.New("leader not available")})

	err := p.Publish(context.Background(), Event{Type: CustomOrderResponded, AggregateID: "co-1"})
	assert.ErrorContains(t, err, "leader not available")
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop().Publish(context.Background(), Event{Type: OrderStatusChanged}))
}
