package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/geocoder89/eventdesk/internal/domain/job"
)

// EncodePayload validates payload against t and marshals it for the jobs table.
func EncodePayload(t JobType, payload any) (json.RawMessage, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return json.RawMessage(b), nil
}

// DecodePayload unmarshals job.Payload into the correct typed payload struct.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)

	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch t {
	case JobAttendeeConfirmation:
		var p AttendeeConfirmationPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		if err := ValidatePayload(t, p); err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}

// NewConfirmationRequest builds the outbox job for a fresh registration.
func NewConfirmationRequest(p AttendeeConfirmationPayload) (job.CreateRequest, error) {
	raw, err := EncodePayload(JobAttendeeConfirmation, p)
	if err != nil {
		return job.CreateRequest{}, err
	}

	key := ConfirmationKey(p.AttendeeID)

	return job.CreateRequest{
		Type:           string(JobAttendeeConfirmation),
		Payload:        raw,
		RunAt:          p.RequestedAt,
		MaxAttempts:    10,
		IdempotencyKey: &key,
	}, nil
}
