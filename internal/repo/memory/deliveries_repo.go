package memory

import (
	"context"

	"github.com/geocoder89/eventdesk/internal/domain/delivery"
)

type DeliveriesRepo struct {
	s *Store
}

func NewDeliveriesRepo(s *Store) *DeliveriesRepo {
	return &DeliveriesRepo{s: s}
}

func (r *DeliveriesRepo) TryStart(ctx context.Context, jobID, attendeeID, recipient string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	switch r.s.sends[attendeeID] {
	case delivery.StatusSent:
		return delivery.ErrAlreadySent
	case delivery.StatusSending:
		return delivery.ErrInProgress
	}

	r.s.sends[attendeeID] = delivery.StatusSending
	return nil
}

func (r *DeliveriesRepo) MarkSent(ctx context.Context, attendeeID string) error {
	r.set(attendeeID, delivery.StatusSent)
	return nil
}

func (r *DeliveriesRepo) MarkFailed(ctx context.Context, attendeeID, errMsg string) error {
	r.set(attendeeID, delivery.StatusFailed)
	return nil
}

func (r *DeliveriesRepo) set(attendeeID, status string) {
	r.s.mu.Lock()
	r.s.sends[attendeeID] = status
	r.s.mu.Unlock()
}
