package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/eventdesk/internal/domain/attendee"
	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/jobs"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const attendeeColumns = `id, event_id, name, email, phone, tickets, registered_at`

type AttendeesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
	jobs *JobsRepo
}

func NewAttendeesRepo(pool *pgxpool.Pool, prom *observability.Prom, jobsRepo *JobsRepo) *AttendeesRepo {
	return &AttendeesRepo{
		pool: pool,
		prom: prom,
		jobs: jobsRepo,
	}
}

func (repo *AttendeesRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanAttendee(row pgx.Row, a *attendee.Attendee) error {
	return row.Scan(&a.ID, &a.EventID, &a.Name, &a.Email, &a.Phone, &a.Tickets, &a.RegisteredAt)
}

// RegisterTx locks the event row, checks the remaining tickets, inserts the
// attendee and queues its confirmation job, all on tx.
func (repo *AttendeesRepo) RegisterTx(ctx context.Context, tx pgx.Tx, req attendee.RegisterRequest) (a attendee.Attendee, err error) {
	var capacity int
	var title string

	err = repo.observe("attendees.register_tx.capacity_lock", func() error {
		return tx.QueryRow(ctx, `
		SELECT capacity, title
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, req.EventID).Scan(&capacity, &title)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
		}
		return
	}

	// the event row lock serialises every registration for this event
	var sold int
	err = repo.observe("attendees.register_tx.sold", func() error {
		return tx.QueryRow(ctx, `SELECT COALESCE(SUM(tickets), 0) FROM attendees WHERE event_id = $1`, req.EventID).Scan(&sold)
	})
	if err != nil {
		return
	}

	if err = attendee.Admit(capacity, sold, req.TicketCount()); err != nil {
		return
	}

	a = attendee.NewFromRegisterRequest(req)

	err = repo.observe("attendees.register_tx.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO attendees (`+attendeeColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, a.ID, a.EventID, a.Name, a.Email, a.Phone, a.Tickets, a.RegisteredAt)
		return e
	})
	if err != nil {
		return
	}

	jobReq, err := jobs.NewConfirmationRequest(jobs.AttendeeConfirmationPayload{
		AttendeeID:  a.ID,
		EventID:     a.EventID,
		EventTitle:  title,
		Name:        a.Name,
		Email:       a.Email,
		Tickets:     a.Tickets,
		RequestedAt: a.RegisteredAt,
	})
	if err != nil {
		return
	}

	_, err = repo.jobs.CreateTx(ctx, tx, jobReq)
	return
}

// using the idiomatic Go "named return and defer" approach
func (repo *AttendeesRepo) Register(ctx context.Context, req attendee.RegisterRequest) (a attendee.Attendee, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	a, err = repo.RegisterTx(ctx, tx, req)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

func (repo *AttendeesRepo) ListByEvent(ctx context.Context, eventID string) (out []attendee.Attendee, err error) {
	var rows pgx.Rows

	err = repo.observe("attendees.list_by_event", func() error {
		rows, err = repo.pool.Query(ctx,
			`
	SELECT `+attendeeColumns+`
	FROM attendees
	WHERE event_id = $1
	ORDER BY registered_at ASC, id ASC
	`,
			eventID,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	out = make([]attendee.Attendee, 0)

	for rows.Next() {
		var a attendee.Attendee

		if e := scanAttendee(rows, &a); e != nil {
			err = e
			return
		}
		out = append(out, a)
	}

	if e := rows.Err(); e != nil {
		if repo.prom != nil {
			repo.prom.DbErrorsTotal.WithLabelValues("attendees.list_by_event", "rows_err").Inc()
		}
		err = e
		return
	}

	// in the event i want a 404 if the event itself does not exist
	if len(out) == 0 {
		var dummy string

		err = repo.observe("attendees.list_by_event.check_event_exists", func() error {
			return repo.pool.QueryRow(ctx, `SELECT id FROM events WHERE id = $1`, eventID).Scan(&dummy)
		})

		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
			return
		}

		if err != nil {
			return
		}
	}

	return
}

// Update changes the attendee without re-checking the event capacity.
func (repo *AttendeesRepo) Update(ctx context.Context, id string, req attendee.UpdateRequest) (attendee.Attendee, error) {
	var a attendee.Attendee

	err := repo.observe("attendees.update", func() error {
		return scanAttendee(repo.pool.QueryRow(ctx, `
		UPDATE attendees
		SET name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			tickets = COALESCE($5, tickets)
		WHERE id = $1
		RETURNING `+attendeeColumns,
			id, req.Name, req.Email, req.Phone, req.Tickets,
		), &a)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendee.Attendee{}, attendee.ErrNotFound
		}
		return attendee.Attendee{}, err
	}

	return a, nil
}

func (repo *AttendeesRepo) TicketSales(ctx context.Context, eventID string) (capacity, sold int, err error) {
	err = repo.observe("attendees.ticket_sales", func() error {
		return repo.pool.QueryRow(ctx, `
		SELECT e.capacity,
			(SELECT COALESCE(SUM(a.tickets), 0) FROM attendees a WHERE a.event_id = e.id)
		FROM events e
		WHERE e.id = $1
	`, eventID).Scan(&capacity, &sold)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = event.ErrNotFound
	}

	return
}
