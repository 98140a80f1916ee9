package jobs

type JobType string

const (
	JobAttendeeConfirmation JobType = "attendee.confirmation"
)

// check to see if the job type is a known constant
func (t JobType) IsValid() bool {
	switch t {
	case JobAttendeeConfirmation:
		return true
	default:
		return false
	}
}

// ConfirmationKey is the idempotency key of an attendee's confirmation job.
func ConfirmationKey(attendeeID string) string {
	return "attendee:confirm:" + attendeeID
}
