package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/eventdesk/internal/domain/delivery"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeliveriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewDeliveriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *DeliveriesRepo {
	return &DeliveriesRepo{pool: pool, prom: prom}
}

func (r *DeliveriesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// TryStart claims the confirmation for attendeeID. It returns
// delivery.ErrAlreadySent or delivery.ErrInProgress when another attempt owns it.
func (r *DeliveriesRepo) TryStart(ctx context.Context, jobID, attendeeID, recipient string) error {
	// 1) Insert if missing
	err := r.observe("deliveries.try_start.insert", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO confirmation_deliveries (attendee_id, job_id, recipient, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'sending', NOW(), NOW())
	`, attendeeID, jobID, recipient)
		return err
	})

	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// 2) Row exists. A failed row is flipped back to sending by exactly one worker.
	var claimed int64
	err = r.observe("deliveries.try_start.reclaim", func() error {
		tag, uErr := r.pool.Exec(ctx, `
		UPDATE confirmation_deliveries
		SET status = 'sending',
		    job_id = $2,
		    recipient = $3,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE attendee_id = $1 AND status = 'failed'
	`, attendeeID, jobID, recipient)
		claimed = tag.RowsAffected()
		return uErr
	})

	if err != nil {
		return err
	}
	if claimed == 1 {
		return nil
	}

	// 3) Not failed. Determine whether it's already sent or currently sending.
	var status string
	var sentAt *time.Time

	err = r.observe("deliveries.try_start.status", func() error {
		return r.pool.QueryRow(ctx, `
		SELECT status, sent_at
		FROM confirmation_deliveries
		WHERE attendee_id = $1
	`, attendeeID).Scan(&status, &sentAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// row disappeared; let caller retry
			return nil
		}
		return err
	}

	if sentAt != nil || status == delivery.StatusSent {
		return delivery.ErrAlreadySent
	}

	return delivery.ErrInProgress
}

func (r *DeliveriesRepo) MarkSent(ctx context.Context, attendeeID string) error {
	return r.observe("deliveries.mark_sent", func() error {
		_, err := r.pool.Exec(ctx, `
		UPDATE confirmation_deliveries
		SET status = 'sent',
		    sent_at = NOW(),
		    last_error = NULL,
		    updated_at = NOW()
		WHERE attendee_id = $1
	`, attendeeID)
		return err
	})
}

func (r *DeliveriesRepo) MarkFailed(ctx context.Context, attendeeID, errMsg string) error {
	return r.observe("deliveries.mark_failed", func() error {
		_, err := r.pool.Exec(ctx, `
		UPDATE confirmation_deliveries
		SET status = 'failed',
		    last_error = $2,
		    updated_at = NOW()
		WHERE attendee_id = $1
	`, attendeeID, errMsg)
		return err
	})
}
