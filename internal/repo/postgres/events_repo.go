package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventlyhq/evently/internal/domain/event"
	"github.com/eventlyhq/evently/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

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

func (r *EventsRepo) Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
	e := event.NewFromCreateRequest(req)

	err := r.observe("events.create", func() error {
		_, execErr := r.pool.Exec(ctx,
			`INSERT INTO events(id, name, description, date, location, max_attendees, created_at)
			 VALUES($1,$2,$3,$4,$5,$6,$7)`,
			e.ID, e.Name, e.Description, e.Date, e.Location, e.MaxAttendees, e.CreatedAt)
		return execErr
	})

	if err != nil {
		return event.Event{}, err
	}

	return e, nil
}

// FindOverlapping reports whether another event exists at the same
// location within the window around date. excludeID skips the event being
// updated; pass "" on create.
func (r *EventsRepo) FindOverlapping(ctx context.Context, date time.Time, location string, window time.Duration, excludeID string) (bool, error) {
	var exists bool

	err := r.observe("events.find_overlapping", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM events
				WHERE location = $1
				  AND date BETWEEN $2 AND $3
				  AND ($4 = '' OR id::text <> $4)
			)`,
			location, date.Add(-window), date.Add(window), excludeID,
		).Scan(&exists)
	})

	return exists, err
}

func (r *EventsRepo) List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, int, error) {
	baseQuery := `
		SELECT id,
			name,
			description,
			date,
			location,
			max_attendees,
			created_at,
			COUNT(*) OVER() AS total
		FROM events
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("date >= $%d", argsPosition))
		args = append(args, *filter.From)
		argsPosition++
	}

	if filter.To != nil {
		conds = append(conds, fmt.Sprintf("date <= $%d", argsPosition))
		args = append(args, *filter.To)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY date ASC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	var rows pgx.Rows
	err := r.observe("events.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, args...)
		return qerr
	})

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]event.Event, 0, filter.Limit)
	total := 0

	for rows.Next() {
		var e event.Event
		var t int

		err = rows.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.MaxAttendees, &e.CreatedAt, &t)

		if err != nil {
			return nil, 0, err
		}

		total = t
		output = append(output, e)
	}

	err = rows.Err()

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	var e event.Event

	err := r.observe("events.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, description, date, location, max_attendees, created_at
			 FROM events WHERE id = $1`, id,
		).Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.MaxAttendees, &e.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

func (r *EventsRepo) Update(ctx context.Context, e event.Event) (event.Event, error) {
	var out event.Event

	err := r.observe("events.update", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE events
				SET name = $2,
					description = $3,
					date = $4,
					location = $5,
					max_attendees = $6
			WHERE id = $1
			RETURNING id, name, description, date, location, max_attendees, created_at`,
			e.ID,
			e.Name,
			e.Description,
			e.Date,
			e.Location,
			e.MaxAttendees,
		).Scan(
			&out.ID,
			&out.Name,
			&out.Description,
			&out.Date,
			&out.Location,
			&out.MaxAttendees,
			&out.CreatedAt,
		)
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return out, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("events.delete", func() error {
		tag, execErr := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)

		if execErr != nil {
			return execErr
		}

		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return event.ErrNotFound
	}

	return nil
}

// MostRegistrations returns the event with the highest registration count.
func (r *EventsRepo) MostRegistrations(ctx context.Context) (event.EventWithCount, error) {
	var out event.EventWithCount

	err := r.observe("events.most_registrations", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT e.id, e.name, e.description, e.date, e.location, e.max_attendees, e.created_at,
				COUNT(r.id) AS registration_count
			FROM events e
			LEFT JOIN registrations r ON r.event_id = e.id
			GROUP BY e.id
			ORDER BY COUNT(r.id) DESC, e.date ASC
			LIMIT 1
		`).Scan(
			&out.Event.ID, &out.Event.Name, &out.Event.Description, &out.Event.Date,
			&out.Event.Location, &out.Event.MaxAttendees, &out.Event.CreatedAt,
			&out.RegistrationCount,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.EventWithCount{}, event.ErrNotFound
		}
		return event.EventWithCount{}, err
	}

	return out, nil
}

// ListInWindow returns events whose date falls inside [from, to],
// used by the reminder scheduler.
func (r *EventsRepo) ListInWindow(ctx context.Context, from, to time.Time) ([]event.Event, error) {
	var rows pgx.Rows

	err := r.observe("events.list_in_window", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, `
			SELECT id, name, description, date, location, max_attendees, created_at
			FROM events
			WHERE date >= $1 AND date <= $2
			ORDER BY date ASC
		`, from, to)
		return qerr
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]event.Event, 0)

	for rows.Next() {
		var e event.Event

		if scanErr := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.MaxAttendees, &e.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

// DeleteOlderThan removes events dated before cutoff, registrations
// cascade. Used by the cleanup job; no registration guard on purpose.
func (r *EventsRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64

	err := r.observe("events.delete_older_than", func() error {
		tag, execErr := r.pool.Exec(ctx, `DELETE FROM events WHERE date < $1`, cutoff)

		if execErr != nil {
			return execErr
		}

		deleted = tag.RowsAffected()
		return nil
	})

	return deleted, err
}
