package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/eventdesk/internal/domain/delivery"
	"github.com/geocoder89/eventdesk/internal/domain/job"
	"github.com/geocoder89/eventdesk/internal/jobs"
	"github.com/geocoder89/eventdesk/internal/notifications"
)

// errSkipped marks a job that needs no work, e.g. a confirmation already sent.
var errSkipped = errors.New("skipped")

// ProcessOne claims and runs at most one job. It reports whether a job was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	w.metrics.IncClaimed()
	w.metrics.Started()
	start := w.now()

	log := w.log.With("job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1)

	execCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	err = w.execute(execCtx, j)
	cancel()

	if err != nil && !errors.Is(err, errSkipped) {
		result := w.handleFailure(ctx, j, err)
		w.metrics.Finished(j.Type, result, w.now().Sub(start))
		log.Warn("job.failed", "result", result, "err", err)
		return true, nil
	}

	result := "done"
	if errors.Is(err, errSkipped) {
		result = "skipped"
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		w.metrics.Finished(j.Type, "failed", w.now().Sub(start))
		return true, err
	}

	w.metrics.Finished(j.Type, result, w.now().Sub(start))
	log.Info("job.done", "result", result)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.AttendeeConfirmationPayload:
		return w.sendConfirmation(ctx, j, p)
	default:
		return fmt.Errorf("%w: %T", jobs.ErrPayloadTypeMismatch, payload)
	}
}

func (w *Worker) sendConfirmation(ctx context.Context, j job.Job, p jobs.AttendeeConfirmationPayload) error {
	if err := w.ledger.TryStart(ctx, j.ID, p.AttendeeID, p.Email); err != nil {
		if errors.Is(err, delivery.ErrAlreadySent) {
			return errSkipped
		}
		return err
	}

	err := w.notifier.SendAttendeeConfirmation(ctx, notifications.AttendeeConfirmationInput{
		AttendeeID: p.AttendeeID,
		EventID:    p.EventID,
		EventTitle: p.EventTitle,
		Name:       p.Name,
		Email:      p.Email,
		Tickets:    p.Tickets,
	})

	if err != nil {
		_ = w.ledger.MarkFailed(ctx, p.AttendeeID, err.Error())
		return err
	}

	return w.ledger.MarkSent(ctx, p.AttendeeID)
}

// handleFailure retries with backoff until the job's attempts run out.
// Payloads that can never decode fail at once.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) string {
	permanent := errors.Is(cause, jobs.ErrInvalidJobType) ||
		errors.Is(cause, jobs.ErrInvalidJobPayload) ||
		errors.Is(cause, jobs.ErrPayloadTypeMismatch)

	if permanent || j.ExhaustedAfterFailure() {
		if err := w.repo.MarkFailed(ctx, j.ID, cause.Error()); err != nil {
			w.log.Error("job.mark_failed", "job_id", j.ID, "err", err)
		}
		return "failed"
	}

	runAt := w.now().Add(ExponentialBackoff(j.Attempts))
	if err := w.repo.Reschedule(ctx, j.ID, runAt, cause.Error()); err != nil {
		w.log.Error("job.reschedule", "job_id", j.ID, "err", err)
	}
	return "retry"
}
