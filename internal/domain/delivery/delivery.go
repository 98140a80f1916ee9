// Package delivery tracks confirmation messages per attendee so a retried or
// requeued job never sends the same confirmation twice.
package delivery

import "errors"

const (
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

var (
	ErrAlreadySent = errors.New("confirmation already sent")
	ErrInProgress  = errors.New("confirmation send in progress")
)
