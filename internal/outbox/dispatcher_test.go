package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/activities/internal/logging"
	"example.com/activities/internal/platform/events"
)

func newUnitDispatcher(producer *stubProducer, registry *stubRegistry) *Dispatcher {
	return NewDispatcher(nil, producer, registry, logging.Discard(), time.Second, 10)
}

func outboxMessage(id int64, eventType string) Message {
	return Message{
		EventID:       id,
		AggregateType: "activity",
		AggregateID:   "a-1",
		EventType:     eventType,
		Topic:         "activity_events",
		SchemaSubject: "activity_events-" + eventType,
		PartitionKey:  "a-1",
		Payload:       json.RawMessage(`{"activity_id":"a-1"}`),
	}
}

func TestDeliverFramesPayloadAndSetsHeaders(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}
	d := newUnitDispatcher(producer, registry)

	require.NoError(t, d.deliver(context.Background(), []Message{outboxMessage(1, events.TypeActivityCreated)}))

	require.Len(t, producer.writes, 1)
	record := producer.writes[0].messages[0]
	assert.Equal(t, "activity_events", producer.writes[0].topic)
	assert.Equal(t, []byte("a-1"), record.Key)

	id, payload, err := events.Unframe(record.Value)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.JSONEq(t, `{"activity_id":"a-1"}`, string(payload))

	headers := map[string]string{}
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, events.TypeActivityCreated, headers[events.HeaderEventType])
	assert.Equal(t, "activity_events-activity.created", headers[events.HeaderSchemaSubject])
}

func TestDeliverCachesSchemaIDsPerSubject(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 7}
	d := newUnitDispatcher(producer, registry)

	batch := []Message{
		outboxMessage(1, events.TypeActivityCreated),
		outboxMessage(2, events.TypeActivityCreated),
		outboxMessage(3, events.TypeActivityDeleted),
	}
	require.NoError(t, d.deliver(context.Background(), batch))

	require.Len(t, producer.writes, 1)
	assert.Len(t, producer.writes[0].messages, 3)
	assert.Len(t, registry.calls, 2)
}

func TestDeliverRejectsUnknownEventType(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{}
	d := newUnitDispatcher(producer, registry)

	err := d.deliver(context.Background(), []Message{outboxMessage(1, "activity.unknown")})
	require.ErrorContains(t, err, "no schema metadata for event_type=activity.unknown")
	assert.Empty(t, producer.writes)
	assert.Empty(t, registry.calls)
}

func TestDeliverWrapsProducerError(t *testing.T) {
	d := newUnitDispatcher(&stubProducer{err: errors.New("broker down")}, &stubRegistry{id: 1})

	err := d.deliver(context.Background(), []Message{outboxMessage(1, events.TypeActivityDeleted)})
	require.ErrorContains(t, err, "broker down")
}

func TestBackoffDelay(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Minute},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{4, 8 * time.Minute},
		{7, time.Hour},
		{40, time.Hour},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, backoffDelay(time.Minute, tc.attempt), "attempt %d", tc.attempt)
	}
}
