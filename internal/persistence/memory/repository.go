// Package memory stores activities in process memory for local development
// and tests.
package memory

import (
	"context"
	"sync"

	"example.com/activities/internal/domain"
)

// Repository implements domain.ActivityRepository without persistence.
type Repository struct {
	mu          sync.RWMutex
	order       []string
	activities  map[string]domain.Activity
	idempotency map[string]string
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		activities:  make(map[string]domain.Activity),
		idempotency: make(map[string]string),
	}
}

func idempotencyIndex(createdBy, key string) string {
	return createdBy + "\x00" + key
}

// FindByIdempotency implements domain.ActivityRepository.
func (r *Repository) FindByIdempotency(_ context.Context, createdBy, key string) (*domain.Activity, error) {
	if key == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.idempotency[idempotencyIndex(createdBy, key)]
	if !ok {
		return nil, nil
	}
	activity, ok := r.activities[id]
	if !ok {
		return nil, nil
	}
	return &activity, nil
}

// Create implements domain.ActivityRepository.
func (r *Repository) Create(_ context.Context, activity domain.Activity, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.activities[activity.ID] = activity
	r.order = append(r.order, activity.ID)
	if key != "" {
		r.idempotency[idempotencyIndex(activity.CreatedBy, key)] = activity.ID
	}
	return nil
}

// List implements domain.ActivityRepository. Activities come back in insertion order.
func (r *Repository) List(context.Context) ([]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Activity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.activities[id])
	}
	return out, nil
}

// Delete implements domain.ActivityRepository.
func (r *Repository) Delete(_ context.Context, activityID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.activities[activityID]; !ok {
		return domain.ErrActivityNotFound
	}
	delete(r.activities, activityID)
	for i, id := range r.order {
		if id == activityID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for k, id := range r.idempotency {
		if id == activityID {
			delete(r.idempotency, k)
		}
	}
	return nil
}
