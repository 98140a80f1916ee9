// Package memory holds map-backed stores with the same transactional
// guarantees as the postgres repos: a single mutex makes every write atomic.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/geocoder89/eventdesk/internal/domain/attendee"
	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/domain/job"
)

type Store struct {
	mu        sync.RWMutex
	events    map[string]event.Event
	attendees []attendee.Attendee // registration order
	jobs      []job.Job
	sends     map[string]string // attendee id -> delivery status
}

func NewStore() *Store {
	return &Store{
		events: make(map[string]event.Event),
		sends:  make(map[string]string),
	}
}

// sortedEvents returns events ordered by date then id. Callers hold mu.
func (s *Store) sortedEvents(match func(event.Event) bool) []event.Event {
	out := make([]event.Event, 0, len(s.events))

	for _, e := range s.events {
		if match(e) {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})

	return out
}

// soldFor sums tickets for one event. Callers hold mu.
func (s *Store) soldFor(eventID string) int {
	var list []attendee.Attendee
	for _, a := range s.attendees {
		if a.EventID == eventID {
			list = append(list, a)
		}
	}
	return attendee.Sold(list)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
