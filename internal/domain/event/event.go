package event

import (
	"errors"
	"time"
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location,omitempty"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"createdAt"`
}

// with pointers if optional, it will be nil
type ListEventsFilter struct {
	Search *string
	From   *time.Time
	Limit  int
	Offset int
}

var ErrNotFound = errors.New("event not found")

// Date is an ISO-8601 string; handlers parse it before the repo sees the request.
type CreateEventRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"omitempty,max=5000"`
	Date        string `json:"date" binding:"required"`
	Location    string `json:"location" binding:"omitempty,max=200"`
	Capacity    *int   `json:"capacity" binding:"omitempty,min=0,max=1000000"`
}

// partial update: nil fields keep their stored value.
type UpdateEventRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Date        *string `json:"date"`
	Location    *string `json:"location" binding:"omitempty,max=200"`
	Capacity    *int    `json:"capacity" binding:"omitempty,min=0,max=1000000"`
}

// Patch is an UpdateEventRequest whose date has been parsed.
type Patch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	Capacity    *int
}

// Apply returns e with every non-nil field of p copied over.
func (p Patch) Apply(e Event) Event {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Capacity != nil {
		e.Capacity = *p.Capacity
	}
	return e
}
