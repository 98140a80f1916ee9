package jobs

import "time"

// AttendeeConfirmationPayload carries what the notifier needs so the worker
// does not have to reload the attendee.
type AttendeeConfirmationPayload struct {
	AttendeeID  string    `json:"attendeeId"`
	EventID     string    `json:"eventId"`
	EventTitle  string    `json:"eventTitle"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Tickets     int       `json:"tickets"`
	RequestedAt time.Time `json:"requestedAt"`
}
