// Package dates parses the free-form date strings found in uploaded files and
// request bodies.
package dates

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmpty        = errors.New("date is empty")
	ErrUnrecognized = errors.New("unrecognized date")
)

// Layouts are tried in order; the first one that consumes the whole input wins.
// Day, month, hour, minute and second accept one or two digits.
var layouts = []string{
	"2006-1-2 15:4:5", // YYYY-MM-DD HH:MM:SS
	"2006-1-2T15:4",   // YYYY-MM-DDTHH:MM
	"2006-1-2",        // YYYY-MM-DD
	"2-1-2006 15:4",   // DD-MM-YYYY HH:MM
	"2-1-2006",        // DD-MM-YYYY
}

// ISO-8601 shapes accepted by ParseISO, zoned first.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse normalizes raw into a timestamp. Empty input yields ErrEmpty, input
// that matches no known layout yields ErrUnrecognized.
func Parse(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, ErrEmpty
	}

	s := strings.TrimSpace(raw)

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}

	// the structured fallback sees the untrimmed value
	return ParseISO(raw)
}

// ParseISO accepts ISO-8601 date and date-time values. Zoned values are
// converted to UTC; naive values are taken as UTC.
func ParseISO(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, ErrEmpty
	}

	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrUnrecognized
}

// Format renders t as an ISO-8601 local date-time in UTC, e.g.
// 2024-03-01T18:00:00. Microseconds are only written when non-zero.
func Format(t time.Time) string {
	t = t.UTC()

	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format("2006-01-02T15:04:05.000000")
	}

	return t.Format("2006-01-02T15:04:05")
}
