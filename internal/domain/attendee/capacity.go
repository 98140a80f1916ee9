package attendee

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CapacityError reports a registration that would oversell an event.
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough tickets available: requested %d, available %d", e.Requested, e.Available)
}

// Sold sums the tickets held by an event's attendees.
func Sold(attendees []Attendee) int {
	total := 0
	for _, a := range attendees {
		total += a.Tickets
	}
	return total
}

// Available is capacity minus sold, never negative.
func Available(capacity, sold int) int {
	if sold >= capacity {
		return 0
	}
	return capacity - sold
}

// Admit decides whether requested more tickets fit. It must be called with
// sold read inside the same transaction that inserts the attendee.
func Admit(capacity, sold, requested int) error {
	available := Available(capacity, sold)

	if requested > available {
		return &CapacityError{Requested: requested, Available: available}
	}

	return nil
}

type Report struct {
	Sold      int     `json:"sold"`
	Available int     `json:"available"`
	Revenue   float64 `json:"revenue"`
}

func NewReport(capacity, sold int, price float64) Report {
	return Report{
		Sold:      sold,
		Available: Available(capacity, sold),
		Revenue:   float64(sold) * price,
	}
}

// ParsePrice reads the unit price query value. Anything that is not a finite
// number counts as zero.
func ParsePrice(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}

	return p
}
