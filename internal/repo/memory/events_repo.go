package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/eventdesk/internal/domain/event"
)

var errInvalidEvent = errors.New("invalid event")

type EventsRepo struct {
	s *Store
}

func NewEventsRepo(s *Store) *EventsRepo {
	return &EventsRepo{s: s}
}

func validate(e event.Event) error {
	if e.Title == "" || e.Date.IsZero() {
		return fmt.Errorf("%w: title and date are required", errInvalidEvent)
	}
	if e.Capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", errInvalidEvent)
	}
	return nil
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	if err := validate(e); err != nil {
		return event.Event{}, err
	}

	r.s.mu.Lock()
	r.s.events[e.ID] = e
	r.s.mu.Unlock()

	return e, nil
}

// CreateBatch stores all events or none of them.
func (r *EventsRepo) CreateBatch(ctx context.Context, events []event.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := make(map[string]struct{}, len(events))

	for _, e := range events {
		if err := validate(e); err != nil {
			return err
		}

		_, dup := seen[e.ID]
		_, exists := r.s.events[e.ID]

		if dup || exists {
			return fmt.Errorf("%w: duplicate id %s", errInvalidEvent, e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	for _, e := range events {
		r.s.events[e.ID] = e
	}

	return nil
}

func (r *EventsRepo) List(ctx context.Context, f event.ListEventsFilter) ([]event.Event, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.s.sortedEvents(func(e event.Event) bool {
		if f.Search != nil && !containsFold(e.Title, *f.Search) {
			return false
		}
		if f.From != nil && e.Date.Before(*f.From) {
			return false
		}
		return true
	})

	total := len(all)

	if f.Offset >= total {
		return []event.Event{}, total, nil
	}

	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}

	return all[f.Offset:end], total, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	return e, nil
}

func (r *EventsRepo) Update(ctx context.Context, id string, p event.Patch) (event.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	e = p.Apply(e)

	if err := validate(e); err != nil {
		return event.Event{}, err
	}

	r.s.events[id] = e
	return e, nil
}

// Delete removes the event and cascades to its attendees.
func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[id]; !ok {
		return event.ErrNotFound
	}

	delete(r.s.events, id)

	kept := r.s.attendees[:0]
	for _, a := range r.s.attendees {
		if a.EventID != id {
			kept = append(kept, a)
		}
	}
	r.s.attendees = kept

	return nil
}
