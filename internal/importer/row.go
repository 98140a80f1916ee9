package importer

import (
	"math"
	"strconv"
	"strings"

	"github.com/geocoder89/eventdesk/internal/dates"
	"github.com/geocoder89/eventdesk/internal/domain/event"
)

// Record is one data row keyed by the exact header text of its column.
type Record map[string]string

// Header aliases, tried in order. Matching is case-sensitive.
var (
	titleHeaders       = []string{"Event Title", "Title", "title"}
	dateHeaders        = []string{"Date", "date"}
	descriptionHeaders = []string{"Description", "description"}
	locationHeaders    = []string{"Location", "location"}
	capacityHeaders    = []string{"Capacity", "capacity"}
)

// RowError is a validation failure for one record. Its text is reported to the
// client verbatim.
type RowError struct {
	Msg string
}

func (e *RowError) Error() string { return e.Msg }

var errMissingTitleOrDate = &RowError{Msg: "Missing title or date"}

// Summary is the serialized view of an imported row.
type Summary struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

// first returns the first non-empty value among keys.
func (r Record) first(keys []string) string {
	for _, k := range keys {
		if v := r[k]; v != "" {
			return v
		}
	}
	return ""
}

// MapRow turns one record into an event candidate plus a preview built from
// the raw title. Failures are *RowError values.
func MapRow(rec Record) (event.Event, Summary, error) {
	title := rec.first(titleHeaders)
	rawDate := rec.first(dateHeaders)

	if strings.TrimSpace(title) == "" || rawDate == "" {
		return event.Event{}, Summary{}, errMissingTitleOrDate
	}

	date, err := dates.Parse(rawDate)
	if err != nil {
		return event.Event{}, Summary{}, &RowError{Msg: "Unrecognized date: " + rawDate}
	}

	location := rec.first(locationHeaders)

	capacityRaw := rec.first(capacityHeaders)
	if capacityRaw == "" {
		capacityRaw = "0"
	}
	capacity := coerceCapacity(capacityRaw)

	ev := event.New(title, rec.first(descriptionHeaders), date, location, capacity)

	preview := Summary{
		Title:    title,
		Date:     dates.Format(date),
		Location: location,
		Capacity: capacity,
	}

	return ev, preview, nil
}

// coerceCapacity parses a number and truncates it toward zero ("25.0" -> 25).
// Anything unusable, including negatives and values past the column range,
// becomes 0.
func coerceCapacity(raw string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	f = math.Trunc(f)
	if f < 0 || f > math.MaxInt32 {
		return 0
	}

	return int(f)
}

func summarize(e event.Event) Summary {
	return Summary{
		Title:    e.Title,
		Date:     dates.Format(e.Date),
		Location: e.Location,
		Capacity: e.Capacity,
	}
}
