package notifications

import "context"

type AttendeeConfirmationInput struct {
	AttendeeID string
	EventID    string
	EventTitle string
	Name       string
	Email      string
	Tickets    int
}

type Notifier interface {
	SendAttendeeConfirmation(ctx context.Context, input AttendeeConfirmationInput) error
}
