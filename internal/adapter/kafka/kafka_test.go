package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/radar-transform-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("req-1"),
		Value:     []byte(`{"product":"ppi"}`),
		Topic:     "radar-product-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("NOD:seang")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("req-1"), raw.Key)
	assert.JSONEq(t, `{"product":"ppi"}`, string(raw.Value))
	assert.Equal(t, "radar-product-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "NOD:seang", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestOutputToMessage(t *testing.T) {
	event := domain.OutputEvent{
		Key:   []byte("ppi-0123456789abcdef"),
		Value: []byte(`{"id":"ppi-0123456789abcdef"}`),
		Headers: map[string]string{
			"quantity":     "DBZH",
			"product":      "ppi",
			"generated_at": "2024-05-01T12:05:00Z",
		},
	}

	msg := outputToMessage(event)

	assert.Equal(t, event.Key, msg.Key)
	assert.Equal(t, event.Value, msg.Value)
	want := []kafkago.Header{
		{Key: "generated_at", Value: []byte("2024-05-01T12:05:00Z")},
		{Key: "product", Value: []byte("ppi")},
		{Key: "quantity", Value: []byte("DBZH")},
	}
	if diff := cmp.Diff(want, msg.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestOutputToMessage_NoHeaders(t *testing.T) {
	msg := outputToMessage(domain.OutputEvent{Key: []byte("k")})
	assert.Empty(t, msg.Headers)
}
