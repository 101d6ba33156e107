package domain

import "time"

// ResourceKey names the cached list every activity mutation invalidates.
const ResourceKey = "activities"

// Field limits enforced on create.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 4000
)

// Activity is a named, described record managed through the API.
type Activity struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	Version     string
}
