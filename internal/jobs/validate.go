package jobs

import "strings"

// ValidatePayload performs minimal validation on decoded payloads.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobAttendeeConfirmation:
		var p AttendeeConfirmationPayload
		switch v := payload.(type) {
		case AttendeeConfirmationPayload:
			p = v
		case *AttendeeConfirmationPayload:
			if v == nil {
				return ErrInvalidJobPayload
			}
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.AttendeeID) == "" || trim(p.EventID) == "" || p.Tickets < 1 {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
