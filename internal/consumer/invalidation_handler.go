package consumer

import (
	"context"
	"log/slog"

	"example.com/activities/internal/cache"
	"example.com/activities/internal/domain"
	"example.com/activities/internal/platform/events"
)

// InvalidationHandler drops cached activity lists when an activity is created
// or deleted by any writer.
type InvalidationHandler struct {
	invalidator cache.Invalidator
	logger      *slog.Logger
}

// NewInvalidationHandler constructs an InvalidationHandler.
func NewInvalidationHandler(invalidator cache.Invalidator, logger *slog.Logger) *InvalidationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvalidationHandler{invalidator: invalidator, logger: logger}
}

// Handle invalidates the activities resource key for activity events and
// ignores every other event type.
func (h *InvalidationHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case events.TypeActivityCreated, events.TypeActivityDeleted:
	default:
		return nil
	}
	if err := h.invalidator.Invalidate(ctx, domain.ResourceKey); err != nil {
		return err
	}
	h.logger.Debug("cache invalidated from event", "event_type", msg.EventType, "offset", msg.Offset)
	return nil
}
