package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrProviderDown = errors.New("provider down (simulated)")

type LogNotifierConfig struct {
	// simulate a slow or failing provider
	Delay time.Duration
	Fail  bool
}

// LogNotifier stands in for a mail provider by logging each confirmation.
type LogNotifier struct {
	log *slog.Logger
	cfg LogNotifierConfig
}

func NewLogNotifier(log *slog.Logger, cfg LogNotifierConfig) *LogNotifier {
	return &LogNotifier{log: log, cfg: cfg}
}

func (n *LogNotifier) SendAttendeeConfirmation(ctx context.Context, in AttendeeConfirmationInput) error {
	if n.cfg.Delay > 0 {
		select {
		case <-time.After(n.cfg.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if n.cfg.Fail {
		return ErrProviderDown
	}

	n.log.InfoContext(ctx, "notification.attendee_confirmation",
		"email", in.Email,
		"name", in.Name,
		"event_id", in.EventID,
		"event_title", in.EventTitle,
		"attendee_id", in.AttendeeID,
		"tickets", in.Tickets,
	)
	return nil
}
