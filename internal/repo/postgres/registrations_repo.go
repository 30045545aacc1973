package postgres

import (
	"context"
	"errors"

	"github.com/eventlyhq/evently/internal/capacity"
	"github.com/eventlyhq/evently/internal/domain/attendee"
	"github.com/eventlyhq/evently/internal/domain/event"
	"github.com/eventlyhq/evently/internal/domain/registration"
	"github.com/eventlyhq/evently/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RegistrationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationsRepo {
	return &RegistrationsRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *RegistrationsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *RegistrationsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return repo.pool.BeginTx(ctx, pgx.TxOptions{})
}

// CreateTx performs the whole admission sequence inside the caller's
// transaction: lock the event row, verify the attendee, reject duplicate
// pairs, check capacity against the pre-insert count, insert. The row
// lock serializes concurrent registrations for the same event so the
// capacity check cannot be raced past.
func (repo *RegistrationsRepo) CreateTx(ctx context.Context, tx pgx.Tx, eventID, attendeeID string) (reg registration.Registration, ev event.Event, att attendee.Attendee, err error) {
	// 1) lock event row + load it
	err = repo.observe("registrations.create_tx.event_lock", func() error {
		return tx.QueryRow(ctx, `
			SELECT id, name, description, date, location, max_attendees, created_at
			FROM events
			WHERE id = $1
			FOR UPDATE
		`, eventID).Scan(&ev.ID, &ev.Name, &ev.Description, &ev.Date, &ev.Location, &ev.MaxAttendees, &ev.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
		}
		return
	}

	// 2) attendee must exist
	err = repo.observe("registrations.create_tx.attendee_check", func() error {
		return tx.QueryRow(ctx,
			`SELECT id, name, email, created_at FROM attendees WHERE id = $1`, attendeeID,
		).Scan(&att.ID, &att.Name, &att.Email, &att.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = attendee.ErrNotFound
		}
		return
	}

	// 3) no duplicate (event, attendee) pair
	var exists bool

	err = repo.observe("registrations.create_tx.duplicate_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM registrations
			WHERE event_id = $1 AND attendee_id = $2
		)`, eventID, attendeeID).Scan(&exists)
	})

	if err != nil {
		return
	}

	if exists {
		err = registration.ErrAlreadyRegistered
		return
	}

	// 4) capacity check on the pre-insert count
	var current int

	err = repo.observe("registrations.create_tx.count", func() error {
		return tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
		).Scan(&current)
	})

	if err != nil {
		return
	}

	if capacity.Compute(current, ev.MaxAttendees).FullyBooked {
		err = registration.ErrEventFull
		return
	}

	// 5) insert
	reg = registration.New(eventID, attendeeID)

	err = repo.observe("registrations.create_tx.insert", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO registrations (id, event_id, attendee_id, registered_at)
			VALUES ($1,$2,$3,$4)
		`, reg.ID, reg.EventID, reg.AttendeeID, reg.RegisteredAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "registrations_event_attendee_uniq" {
			err = registration.ErrAlreadyRegistered
		}
		return
	}

	return
}

// ListByEvent returns registrations with their event and attendee loaded.
// A missing event surfaces as event.ErrNotFound; an existing event with
// zero registrations comes back as an empty slice.
func (repo *RegistrationsRepo) ListByEvent(ctx context.Context, eventID string) (regs []registration.WithSummary, err error) {
	var rows pgx.Rows

	err = repo.observe("registrations.list_by_event", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, `
			SELECT r.id, r.event_id, r.attendee_id, r.registered_at,
				e.name, e.date, e.location,
				a.name, a.email
			FROM registrations r
			JOIN events e ON e.id = r.event_id
			JOIN attendees a ON a.id = r.attendee_id
			WHERE r.event_id = $1
			ORDER BY r.registered_at ASC, r.id ASC
		`, eventID)
		return qerr
	})

	if err != nil {
		return
	}

	defer rows.Close()

	regs = make([]registration.WithSummary, 0)

	for rows.Next() {
		var w registration.WithSummary

		e := rows.Scan(
			&w.ID, &w.EventID, &w.AttendeeID, &w.RegisteredAt,
			&w.Event.Name, &w.Event.Date, &w.Event.Location,
			&w.Attendee.Name, &w.Attendee.Email,
		)

		if e != nil {
			err = e
			return
		}
		regs = append(regs, w)
	}

	if e := rows.Err(); e != nil {
		err = e
		return
	}

	// distinguish "event missing" from "event has no registrations"
	if len(regs) == 0 {
		var dummy string

		err = repo.observe("registrations.list_by_event.check_event_exists", func() error {
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

// ListAttendeesForEvent returns the attendees registered for an event,
// used by the reminder scheduler.
func (repo *RegistrationsRepo) ListAttendeesForEvent(ctx context.Context, eventID string) ([]attendee.Attendee, error) {
	var rows pgx.Rows

	err := repo.observe("registrations.list_attendees_for_event", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, `
			SELECT a.id, a.name, a.email, a.created_at
			FROM registrations r
			JOIN attendees a ON a.id = r.attendee_id
			WHERE r.event_id = $1
			ORDER BY r.registered_at ASC
		`, eventID)
		return qerr
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]attendee.Attendee, 0)

	for rows.Next() {
		var a attendee.Attendee

		if scanErr := rows.Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func (repo *RegistrationsRepo) CountForEvent(ctx context.Context, eventID string) (int, error) {
	var total int
	err := repo.observe("registrations.count_for_event", func() error {
		return repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&total)
	})
	return total, err
}

func (repo *RegistrationsRepo) CountForAttendee(ctx context.Context, attendeeID string) (int, error) {
	var total int
	err := repo.observe("registrations.count_for_attendee", func() error {
		return repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE attendee_id = $1`, attendeeID).Scan(&total)
	})
	return total, err
}

// GetByIDTx loads a registration with its event and attendee inside the
// caller's transaction.
func (repo *RegistrationsRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, id string) (reg registration.Registration, ev event.Event, att attendee.Attendee, err error) {
	err = repo.observe("registrations.get_by_id_tx", func() error {
		return tx.QueryRow(ctx, `
			SELECT r.id, r.event_id, r.attendee_id, r.registered_at,
				e.id, e.name, e.description, e.date, e.location, e.max_attendees, e.created_at,
				a.id, a.name, a.email, a.created_at
			FROM registrations r
			JOIN events e ON e.id = r.event_id
			JOIN attendees a ON a.id = r.attendee_id
			WHERE r.id = $1
		`, id).Scan(
			&reg.ID, &reg.EventID, &reg.AttendeeID, &reg.RegisteredAt,
			&ev.ID, &ev.Name, &ev.Description, &ev.Date, &ev.Location, &ev.MaxAttendees, &ev.CreatedAt,
			&att.ID, &att.Name, &att.Email, &att.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = registration.ErrNotFound
		}
		return
	}

	return
}

func (repo *RegistrationsRepo) DeleteTx(ctx context.Context, tx pgx.Tx, id string) error {
	var tag pgconn.CommandTag

	err := repo.observe("registrations.delete_tx", func() error {
		var execErr error
		tag, execErr = tx.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
		return execErr
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return registration.ErrNotFound
	}

	return nil
}

func (repo *RegistrationsRepo) CountForEventTx(ctx context.Context, tx pgx.Tx, eventID string) (int, error) {
	var total int
	err := repo.observe("registrations.count_for_event_tx", func() error {
		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&total)
	})
	return total, err
}
