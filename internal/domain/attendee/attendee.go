package attendee

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Attendee struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Tickets      int       `json:"tickets"`
	RegisteredAt time.Time `json:"registeredAt"`
}

var ErrNotFound = errors.New("attendee not found")

type RegisterRequest struct {
	EventID string `json:"-"`
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Phone   string `json:"phone" binding:"omitempty,max=80"`
	Tickets *int   `json:"tickets" binding:"omitempty,min=1,max=1000000"`
}

// TicketCount is the number of tickets requested, defaulting to one.
func (r RegisterRequest) TicketCount() int {
	if r.Tickets == nil {
		return 1
	}
	return *r.Tickets
}

// partial update; tickets are not re-checked against the event capacity.
type UpdateRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=200"`
	Email   *string `json:"email" binding:"omitempty,email,max=200"`
	Phone   *string `json:"phone" binding:"omitempty,max=80"`
	Tickets *int    `json:"tickets" binding:"omitempty,min=1,max=1000000"`
}

func (u UpdateRequest) Apply(a Attendee) Attendee {
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Email != nil {
		a.Email = *u.Email
	}
	if u.Phone != nil {
		a.Phone = *u.Phone
	}
	if u.Tickets != nil {
		a.Tickets = *u.Tickets
	}
	return a
}

// A factory to build an Attendee from the incoming DTO
func NewFromRegisterRequest(req RegisterRequest) Attendee {
	return Attendee{
		ID:           uuid.NewString(),
		EventID:      req.EventID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Tickets:      req.TicketCount(),
		RegisteredAt: time.Now().UTC(),
	}
}
