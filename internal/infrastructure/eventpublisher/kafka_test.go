package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/movledger/internal/domain"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	writer := &recordingWriter{}
	pub := &KafkaPublisher{writer: writer}
	createdAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	err := pub.Publish(context.Background(), &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "acc-1",
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeMovementRecorded,
		Payload:       map[string]any{"sequence": float64(3)},
		CreatedAt:     createdAt,
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "acc-1", string(msg.Key))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, domain.EventTypeMovementRecorded, string(msg.Headers[0].Value))

	var decoded envelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "evt-1", decoded.ID)
	assert.Equal(t, float64(3), decoded.Payload["sequence"])
	assert.True(t, decoded.CreatedAt.Equal(createdAt))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	writer := &recordingWriter{err: errors.New("leader not available")}
	pub := &KafkaPublisher{writer: writer}

	err := pub.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1", AggregateID: "acc-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt-1")
}

func TestKafkaPublisher_Close(t *testing.T) {
	writer := &recordingWriter{}
	pub := &KafkaPublisher{writer: writer}

	require.NoError(t, pub.Close())
	assert.True(t, writer.closed)
}

func TestNewKafkaPublisherConfiguresWriter(t *testing.T) {
	pub := NewKafkaPublisher([]string{"localhost:9092"}, "movledger.events")

	writer, ok := pub.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "movledger.events", writer.Topic)
	assert.Equal(t, kafka.RequireAll, writer.RequiredAcks)
}
