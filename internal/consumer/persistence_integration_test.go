//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/activities/internal/platform/events"
	"example.com/activities/internal/testsupport"
)

func TestPersistenceHandlerStoresEventOnce(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.Postgres(t, ctx)

	handler := NewPersistenceHandler(pool)

	payload := json.RawMessage(`{"activity_id":"abc","deleted_by":"user-1","deleted_at":"2026-01-01T00:00:00Z"}`)
	msg := Message{
		EventType:     events.TypeActivityDeleted,
		SchemaID:      42,
		SchemaSubject: "activity_events-activity.deleted",
		Topic:         "activity_events",
		Partition:     0,
		Offset:        5,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	require.NoError(t, handler.Handle(ctx, msg))
	require.NoError(t, handler.Handle(ctx, msg), "redelivery must be ignored")

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_event_log`).Scan(&count))
	require.Equal(t, 1, count)

	var storedPayload []byte
	require.NoError(t, pool.QueryRow(ctx, `SELECT payload FROM activity_event_log LIMIT 1`).Scan(&storedPayload))
	require.JSONEq(t, string(payload), string(storedPayload))
}
