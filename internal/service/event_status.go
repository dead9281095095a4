package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/event-ticketing/internal/domain"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventStatusStore is the storage contract of the status change.
type EventStatusStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// EventForUpdate returns domain.ErrEventNotFound for unknown keys.
	EventForUpdate(ctx context.Context, key model.EventKey) (model.Event, error)
	UpdateEventStatus(ctx context.Context, key model.EventKey, status string) error
}

// StatusChange holds the event as it was before and after the update.
type StatusChange struct {
	Message string
	Before  model.Event
	After   model.Event
}

type EventStatusService struct {
	store EventStatusStore
}

func NewEventStatusService(store EventStatusStore) *EventStatusService {
	return &EventStatusService{store: store}
}

// SetStatus moves the event to status.  Setting the current status again
// succeeds and reports the same value on both sides.
func (s *EventStatusService) SetStatus(ctx context.Context, key model.EventKey, status string) (StatusChange, error) {
	if !model.ValidEventStatus(status) {
		return StatusChange{}, domain.ErrInvalidStatus
	}
	if err := key.Validate(); err != nil {
		return StatusChange{}, domain.Invalid("%s", err.Error())
	}

	var out StatusChange
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		before, err := s.store.EventForUpdate(ctx, key)
		if err != nil {
			return storeErr("lock event", err)
		}
		if err := s.store.UpdateEventStatus(ctx, key, status); err != nil {
			return storeErr("update event status", err)
		}
		after, err := s.store.EventForUpdate(ctx, key)
		if err != nil {
			return storeErr("reload event", err)
		}
		out = StatusChange{
			Message: fmt.Sprintf("Event status updated from %s to %s", before.Status, after.Status),
			Before:  before,
			After:   after,
		}
		return nil
	})
	if err != nil {
		return StatusChange{}, storeErr("event status", err)
	}
	return out, nil
}
