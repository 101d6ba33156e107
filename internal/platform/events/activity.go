// Package events defines the activity event payloads published through the outbox.
package events

import "time"

// Event types recorded in the outbox and carried in the event_type Kafka header.
const (
	TypeActivityCreated = "activity.created"
	TypeActivityDeleted = "activity.deleted"
)

// ActivityCreated represents the message emitted when a new activity is accepted.
type ActivityCreated struct {
	ActivityID  string    `json:"activity_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	Version     string    `json:"version"`
}

// ActivityDeleted is emitted when an activity is removed.
type ActivityDeleted struct {
	ActivityID string    `json:"activity_id"`
	DeletedBy  string    `json:"deleted_by"`
	DeletedAt  time.Time `json:"deleted_at"`
}
