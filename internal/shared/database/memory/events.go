package memory

import (
	"context"
	"time"

	"ticketcore/internal/events"
	"ticketcore/internal/shared/apperr"

	"github.com/google/uuid"
)

type eventRepo struct {
	store *Store
}

func (r *eventRepo) Create(ctx context.Context, event *events.Event) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		if _, exists := st.events[event.ID]; exists {
			return apperr.InvalidInput("event %s already exists", event.ID)
		}
		touch(&event.CreatedAt, &event.UpdatedAt, now)
		st.events[event.ID] = *event
		return nil
	})
}

func (r *eventRepo) GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error) {
	var out events.Event
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		event, ok := st.events[id]
		if !ok {
			return apperr.NotFound("event", id)
		}
		out = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *eventRepo) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]events.Event, error) {
	var out []events.Event
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		out = sortedValues(st.events,
			func(e events.Event) bool { return e.OrganizerID == organizerID },
			func(e events.Event) time.Time { return e.CreatedAt },
			func(e events.Event) uuid.UUID { return e.ID })
		return nil
	})
	return out, err
}

func (r *eventRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status events.EventStatus) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		event, ok := st.events[id]
		if !ok {
			return apperr.NotFound("event", id)
		}
		event.Status = status
		event.UpdatedAt = now
		st.events[id] = event
		return nil
	})
}
