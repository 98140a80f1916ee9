package memory

import (
	"context"

	"github.com/geocoder89/eventdesk/internal/domain/attendee"
	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/domain/job"
	"github.com/geocoder89/eventdesk/internal/jobs"
)

type AttendeesRepo struct {
	s *Store
}

func NewAttendeesRepo(s *Store) *AttendeesRepo {
	return &AttendeesRepo{s: s}
}

// Register admits the attendee and queues its confirmation job while holding
// the store lock, so concurrent registrations cannot oversell.
func (r *AttendeesRepo) Register(ctx context.Context, req attendee.RegisterRequest) (attendee.Attendee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ev, ok := r.s.events[req.EventID]
	if !ok {
		return attendee.Attendee{}, event.ErrNotFound
	}

	err := attendee.Admit(ev.Capacity, r.s.soldFor(ev.ID), req.TicketCount())
	if err != nil {
		return attendee.Attendee{}, err
	}

	a := attendee.NewFromRegisterRequest(req)

	jobReq, err := jobs.NewConfirmationRequest(jobs.AttendeeConfirmationPayload{
		AttendeeID:  a.ID,
		EventID:     ev.ID,
		EventTitle:  ev.Title,
		Name:        a.Name,
		Email:       a.Email,
		Tickets:     a.Tickets,
		RequestedAt: a.RegisteredAt,
	})
	if err != nil {
		return attendee.Attendee{}, err
	}

	r.s.attendees = append(r.s.attendees, a)
	r.s.jobs = append(r.s.jobs, job.New(jobReq))

	return a, nil
}

func (r *AttendeesRepo) ListByEvent(ctx context.Context, eventID string) ([]attendee.Attendee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, ok := r.s.events[eventID]; !ok {
		return nil, event.ErrNotFound
	}

	out := make([]attendee.Attendee, 0)
	for _, a := range r.s.attendees {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}

	return out, nil
}

// Update applies the patch without re-checking the event capacity.
func (r *AttendeesRepo) Update(ctx context.Context, id string, req attendee.UpdateRequest) (attendee.Attendee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, a := range r.s.attendees {
		if a.ID == id {
			r.s.attendees[i] = req.Apply(a)
			return r.s.attendees[i], nil
		}
	}

	return attendee.Attendee{}, attendee.ErrNotFound
}

func (r *AttendeesRepo) TicketSales(ctx context.Context, eventID string) (capacity, sold int, err error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ev, ok := r.s.events[eventID]
	if !ok {
		return 0, 0, event.ErrNotFound
	}

	return ev.Capacity, r.s.soldFor(eventID), nil
}
