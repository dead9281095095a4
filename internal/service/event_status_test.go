package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/event-ticketing/internal/domain"
	"github.com/iliyamo/event-ticketing/internal/model"
)

func TestSetStatus(t *testing.T) {
	t.Parallel()
	store := seededStore()
	svc := NewEventStatusService(store)

	got, err := svc.SetStatus(context.Background(), testEvent, model.EventCancelled)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.Before.Status != model.EventScheduled || got.After.Status != model.EventCancelled {
		t.Errorf("before=%s after=%s", got.Before.Status, got.After.Status)
	}
	if got.Message != "Event status updated from SCHEDULED to CANCELLED" {
		t.Errorf("message = %q", got.Message)
	}
	if store.events[testEvent] != model.EventCancelled {
		t.Errorf("stored status = %s", store.events[testEvent])
	}
}

func TestSetStatusErrors(t *testing.T) {
	t.Parallel()
	unknown := testEvent
	unknown.Name = "Jazz Night"

	tests := []struct {
		name    string
		key     model.EventKey
		status  string
		wantErr error
	}{
		{name: "bad status", key: testEvent, status: "POSTPONED", wantErr: domain.ErrInvalidStatus},
		{name: "unknown event", key: unknown, status: model.EventCompleted, wantErr: domain.ErrEventNotFound},
		{name: "missing venue", key: model.EventKey{Name: "x", Date: "2025-01-01"}, status: model.EventCompleted, wantErr: domain.ErrInvalidRequest},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := seededStore()
			_, err := NewEventStatusService(store).SetStatus(context.Background(), tt.key, tt.status)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if store.events[testEvent] != model.EventScheduled {
				t.Errorf("status changed to %s", store.events[testEvent])
			}
		})
	}
}
