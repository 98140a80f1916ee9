package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, description, date, location, capacity, created_at`

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *EventsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	err := r.observe("events.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO events(`+eventColumns+`) VALUES($1,$2,$3,$4,$5,$6,$7)`,
			e.ID, e.Title, e.Description, e.Date, e.Location, e.Capacity, e.CreatedAt)
		return err
	})

	if err != nil {
		return event.Event{}, err
	}

	return e, nil
}

// CreateBatch copies every event inside one transaction; any failure rolls
// the whole batch back.
func (r *EventsRepo) CreateBatch(ctx context.Context, events []event.Event) (err error) {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{e.ID, e.Title, e.Description, e.Date, e.Location, e.Capacity, e.CreatedAt})
	}

	var copied int64
	err = r.observe("events.create_batch.copy", func() error {
		var cErr error
		copied, cErr = tx.CopyFrom(ctx,
			pgx.Identifier{"events"},
			[]string{"id", "title", "description", "date", "location", "capacity", "created_at"},
			pgx.CopyFromRows(rows),
		)
		return cErr
	})

	if err != nil {
		return err
	}

	if copied != int64(len(events)) {
		return fmt.Errorf("copied %d of %d events", copied, len(events))
	}

	return tx.Commit(ctx)
}

func (r *EventsRepo) List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, int, error) {
	baseQuery := `SELECT ` + eventColumns + `, COUNT(*) OVER() AS total FROM events`

	var conds []string
	var args []any

	argsPosition := 1

	if filter.Search != nil {
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", argsPosition))
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		argsPosition++
	}

	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("date >= $%d", argsPosition))
		args = append(args, *filter.From)
		argsPosition++
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	filterArgs := args

	query := baseQuery + where

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY date ASC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	var rows pgx.Rows
	err := r.observe("events.list", func() error {
		var qErr error
		rows, qErr = r.pool.Query(ctx, query, args...)
		return qErr
	})

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]event.Event, 0, limit)
	total := 0

	for rows.Next() {
		var e event.Event
		var t int

		err = rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Capacity, &e.CreatedAt, &t)

		if err != nil {
			return nil, 0, err
		}

		total = t
		output = append(output, e)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	// an offset past the end returns no rows, and with them no window count
	if len(output) == 0 && filter.Offset > 0 {
		total, err = r.count(ctx, where, filterArgs)
		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *EventsRepo) count(ctx context.Context, where string, args []any) (int, error) {
	var total int
	err := r.observe("events.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&total)
	})
	return total, err
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	var e event.Event
	err := r.observe("events.get_by_id", func() error {
		return r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id).
			Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Capacity, &e.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

func (r *EventsRepo) Update(ctx context.Context, id string, p event.Patch) (event.Event, error) {
	var e event.Event

	err := r.observe("events.update", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE events
			SET title = COALESCE($2, title),
				description = COALESCE($3, description),
				date = COALESCE($4, date),
				location = COALESCE($5, location),
				capacity = COALESCE($6, capacity)
			WHERE id = $1
			RETURNING `+eventColumns,
			id,
			p.Title,
			p.Description,
			p.Date,
			p.Location,
			p.Capacity,
		).Scan(
			&e.ID,
			&e.Title,
			&e.Description,
			&e.Date,
			&e.Location,
			&e.Capacity,
			&e.CreatedAt,
		)
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

// Delete removes the event; attendees go with it through ON DELETE CASCADE.
func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("events.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag.RowsAffected() == 0 {
		return event.ErrNotFound
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
