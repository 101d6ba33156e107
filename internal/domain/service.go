// Package domain defines the business logic for the activities API.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"example.com/activities/internal/cache"
	"example.com/activities/internal/observability"
)

var (
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrValidation marks input rejected before reaching the repository.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Is lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ActivityRepository captures persistence operations.
type ActivityRepository interface {
	FindByIdempotency(ctx context.Context, createdBy, idempotencyKey string) (*Activity, error)
	Create(ctx context.Context, activity Activity, idempotencyKey string) error
	List(ctx context.Context) ([]Activity, error)
	Delete(ctx context.Context, activityID, deletedBy string) error
}

// Service orchestrates activity workflows.
type Service struct {
	repo   ActivityRepository
	cache  cache.Invalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service. A nil invalidator disables downstream
// cache notifications.
func NewService(repo ActivityRepository, invalidator cache.Invalidator, logger *slog.Logger) *Service {
	if invalidator == nil {
		invalidator = cache.NoopInvalidator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		cache:  invalidator,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateActivityInput captures the payload from the API layer.
type CreateActivityInput struct {
	Name           string
	Description    string
	CreatedBy      string
	IdempotencyKey string
}

// Validate trims the input and checks required fields and limits.
func (in *CreateActivityInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	switch {
	case in.Name == "":
		return &ValidationError{Field: "name", Reason: "is required"}
	case in.Description == "":
		return &ValidationError{Field: "description", Reason: "is required"}
	case utf8.RuneCountInString(in.Name) > MaxNameLength:
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	case utf8.RuneCountInString(in.Description) > MaxDescriptionLength:
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)}
	}
	return nil
}

// CreateActivity handles idempotent create semantics. The boolean result
// reports whether an earlier activity was replayed for the idempotency key.
func (s *Service) CreateActivity(ctx context.Context, input CreateActivityInput) (*Activity, bool, error) {
	if err := input.Validate(); err != nil {
		return nil, false, err
	}

	if input.IdempotencyKey != "" {
		existing, err := s.repo.FindByIdempotency(ctx, input.CreatedBy, input.IdempotencyKey)
		if err != nil {
			return nil, false, fmt.Errorf("lookup idempotency key: %w", err)
		}
		if existing != nil {
			observability.RecordIdempotentReplay()
			return existing, true, nil
		}
	}

	activity := Activity{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   input.CreatedBy,
		CreatedAt:   s.now(),
		Version:     "v1",
	}

	if err := s.repo.Create(ctx, activity, input.IdempotencyKey); err != nil {
		return nil, false, fmt.Errorf("create activity: %w", err)
	}

	observability.RecordActivityPersisted(activity.CreatedAt)
	s.invalidate(ctx, "create", activity.ID)
	return &activity, false, nil
}

// ListActivities returns every activity in insertion order.
func (s *Service) ListActivities(ctx context.Context) ([]Activity, error) {
	activities, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// DeleteActivity removes an activity by ID. Activity IDs are UUIDs, so any
// other value is reported as not found.
func (s *Service) DeleteActivity(ctx context.Context, activityID, deletedBy string) error {
	activityID = strings.TrimSpace(activityID)
	if activityID == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if _, err := uuid.Parse(activityID); err != nil {
		return ErrActivityNotFound
	}
	if err := s.repo.Delete(ctx, activityID, deletedBy); err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			return err
		}
		return fmt.Errorf("delete activity: %w", err)
	}

	observability.RecordActivityDeleted(s.now())
	s.invalidate(ctx, "delete", activityID)
	return nil
}

// invalidate notifies downstream caches. The write has already committed, so
// a failed notification is logged and left to the cache TTL.
func (s *Service) invalidate(ctx context.Context, op, activityID string) {
	if err := s.cache.Invalidate(ctx, ResourceKey); err != nil {
		s.logger.Warn("cache invalidation failed", "op", op, "activity_id", activityID, "error", err)
	}
}
