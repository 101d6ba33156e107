// Package postgres persists activities and their outbox events in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/activities/internal/domain"
	"example.com/activities/internal/platform/events"
)

// Repository provides Postgres-backed persistence for activities and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectColumns = `activity_id, name, description, created_by, created_at, version`

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.CreatedBy, &a.CreatedAt, &a.Version)
	return a, err
}

// FindByIdempotency checks if an activity already exists for the supplied idempotency key.
func (r *Repository) FindByIdempotency(ctx context.Context, createdBy, idempotencyKey string) (*domain.Activity, error) {
	if idempotencyKey == "" {
		return nil, nil
	}

	query := `SELECT ` + selectColumns + ` FROM activities WHERE created_by=$1 AND idempotency_key=$2`
	activity, err := scanActivity(r.pool.QueryRow(ctx, query, createdBy, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// Create persists the activity and records the created event inside a single transaction.
func (r *Repository) Create(ctx context.Context, activity domain.Activity, idempotencyKey string) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const insertActivity = `INSERT INTO activities (activity_id, name, description, created_by, idempotency_key, version, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	if _, err = tx.Exec(ctx, insertActivity,
		activity.ID,
		activity.Name,
		activity.Description,
		activity.CreatedBy,
		nullIfEmpty(idempotencyKey),
		activity.Version,
		activity.CreatedAt,
	); err != nil {
		return err
	}

	if err = r.insertOutbox(ctx, tx, activity.ID, events.TypeActivityCreated, events.ActivityCreated{
		ActivityID:  activity.ID,
		Name:        activity.Name,
		Description: activity.Description,
		CreatedBy:   activity.CreatedBy,
		CreatedAt:   activity.CreatedAt,
		Version:     activity.Version,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// List returns every activity in insertion order.
func (r *Repository) List(ctx context.Context) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM activities ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Delete removes the activity and records the deleted event in the same
// transaction. IDs that are not UUIDs cannot name a row and report
// domain.ErrActivityNotFound.
func (r *Repository) Delete(ctx context.Context, activityID, deletedBy string) (err error) {
	if _, perr := uuid.Parse(activityID); perr != nil {
		return domain.ErrActivityNotFound
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM activities WHERE activity_id=$1`, activityID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrActivityNotFound
		return err
	}

	if err = r.insertOutbox(ctx, tx, activityID, events.TypeActivityDeleted, events.ActivityDeleted{
		ActivityID: activityID,
		DeletedBy:  deletedBy,
		DeletedAt:  time.Now().UTC(),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, activityID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		"activity",
		activityID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		activityID,
		body,
		fmt.Sprintf("%s:%s", activityID, eventType),
	)
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

// Both event types share a topic so consumers observe creates and deletes in
// per-activity order; subjects are named per record type.
var eventCatalog = map[string]EventMetadata{
	events.TypeActivityCreated: {
		Topic:         "activity_events",
		SchemaSubject: "activity_events-activity.created",
	},
	events.TypeActivityDeleted: {
		Topic:         "activity_events",
		SchemaSubject: "activity_events-activity.deleted",
	},
}
