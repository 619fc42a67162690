package events

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

func TestEncodeEvent(t *testing.T) {
	at := time.Date(2026, 4, 19, 15, 0, 0, 0, time.UTC)
	msg, err := encodeEvent(usecase.Event{
		Type:       usecase.EventResultRecorded,
		MatchID:    42,
		Payload:    map[string]any{"outcome": "1"},
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Equal(t, "application/json", msg.ContentType)
	require.Equal(t, amqp.Persistent, msg.DeliveryMode)
	require.Equal(t, usecase.EventResultRecorded, msg.Type)
	require.Contains(t, msg.MessageId, "result.recorded:42:")

	var decoded eventMessage
	require.NoError(t, sonic.Unmarshal(msg.Body, &decoded))
	require.Equal(t, int64(42), decoded.MatchID)
	require.True(t, decoded.OccurredAt.Equal(at))
}

func TestEncodeEventRequiresType(t *testing.T) {
	_, err := encodeEvent(usecase.Event{MatchID: 1})
	require.Error(t, err)
}

func TestNewAMQPPublisherRequiresURL(t *testing.T) {
	_, err := NewAMQPPublisher(AMQPPublisherConfig{}, nil)
	require.Error(t, err)
}
