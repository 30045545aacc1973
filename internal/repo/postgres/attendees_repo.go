package postgres

import (
	"context"
	"errors"

	"github.com/eventlyhq/evently/internal/domain/attendee"
	"github.com/eventlyhq/evently/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AttendeesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAttendeesRepo(pool *pgxpool.Pool, prom *observability.Prom) *AttendeesRepo {
	return &AttendeesRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *AttendeesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *AttendeesRepo) Create(ctx context.Context, req attendee.CreateAttendeeRequest) (attendee.Attendee, error) {
	a := attendee.NewFromCreateRequest(req)

	err := r.observe("attendees.create", func() error {
		_, execErr := r.pool.Exec(ctx,
			`INSERT INTO attendees(id, name, email, created_at) VALUES($1,$2,$3,$4)`,
			a.ID, a.Name, a.Email, a.CreatedAt)
		return execErr
	})

	if err != nil {
		// the pre-check in the service races with concurrent creates, the
		// unique index is the backstop
		if IsUniqueViolation(err) {
			return attendee.Attendee{}, attendee.ErrEmailTaken
		}
		return attendee.Attendee{}, err
	}

	return a, nil
}

func (r *AttendeesRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool

	err := r.observe("attendees.exists_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM attendees WHERE LOWER(email) = LOWER($1))`, email,
		).Scan(&exists)
	})

	return exists, err
}

func (r *AttendeesRepo) GetByID(ctx context.Context, id string) (attendee.Attendee, error) {
	var a attendee.Attendee

	err := r.observe("attendees.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, email, created_at FROM attendees WHERE id = $1`, id,
		).Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendee.Attendee{}, attendee.ErrNotFound
		}
		return attendee.Attendee{}, err
	}

	return a, nil
}

func (r *AttendeesRepo) List(ctx context.Context, filter attendee.ListAttendeesFilter) ([]attendee.Attendee, error) {
	query := `SELECT id, name, email, created_at FROM attendees`

	var args []interface{}

	if filter.Search != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+filter.Search+"%")
	}

	query += ` ORDER BY created_at ASC, id ASC`

	var rows pgx.Rows
	err := r.observe("attendees.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, args...)
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

func (r *AttendeesRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("attendees.delete", func() error {
		tag, execErr := r.pool.Exec(ctx, `DELETE FROM attendees WHERE id = $1`, id)

		if execErr != nil {
			return execErr
		}

		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return attendee.ErrNotFound
	}

	return nil
}
