package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// New builds an Event ready to be persisted. The title is trimmed and a
// negative capacity is clamped to zero.
func New(title, description string, date time.Time, location string, capacity int) Event {
	if capacity < 0 {
		capacity = 0
	}

	return Event{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		Description: description,
		Date:        date.UTC(),
		Location:    location,
		Capacity:    capacity,
		CreatedAt:   time.Now().UTC(),
	}
}

func NewFromCreateRequest(req CreateEventRequest, date time.Time) Event {
	capacity := 0
	if req.Capacity != nil {
		capacity = *req.Capacity
	}

	return New(req.Title, req.Description, date, req.Location, capacity)
}
