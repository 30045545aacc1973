// Package service holds the orchestration layer: managers validate
// business rules against the repositories, then fire cache invalidation,
// notifications and email jobs as side effects.
package service

import (
	"context"
	"time"

	"github.com/eventlyhq/evently/internal/domain/attendee"
	"github.com/eventlyhq/evently/internal/domain/event"
	"github.com/eventlyhq/evently/internal/domain/job"
	"github.com/eventlyhq/evently/internal/domain/registration"
	"github.com/jackc/pgx/v5"
)

// Keep these interfaces narrow so tests can fake them easily.

type EventsRepository interface {
	Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error)
	FindOverlapping(ctx context.Context, date time.Time, location string, window time.Duration, excludeID string) (bool, error)
	List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, int, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	Update(ctx context.Context, e event.Event) (event.Event, error)
	Delete(ctx context.Context, id string) error
	MostRegistrations(ctx context.Context) (event.EventWithCount, error)
}

type AttendeesRepository interface {
	Create(ctx context.Context, req attendee.CreateAttendeeRequest) (attendee.Attendee, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByID(ctx context.Context, id string) (attendee.Attendee, error)
	List(ctx context.Context, filter attendee.ListAttendeesFilter) ([]attendee.Attendee, error)
	Delete(ctx context.Context, id string) error
}

type RegistrationsRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, eventID, attendeeID string) (registration.Registration, event.Event, attendee.Attendee, error)
	ListByEvent(ctx context.Context, eventID string) ([]registration.WithSummary, error)
	CountForEvent(ctx context.Context, eventID string) (int, error)
	CountForAttendee(ctx context.Context, attendeeID string) (int, error)
	GetByIDTx(ctx context.Context, tx pgx.Tx, id string) (registration.Registration, event.Event, attendee.Attendee, error)
	DeleteTx(ctx context.Context, tx pgx.Tx, id string) error
	CountForEventTx(ctx context.Context, tx pgx.Tx, eventID string) (int, error)
}

// EventsGetter is the read-only slice of the events repository the
// registration coordinator needs for stats.
type EventsGetter interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// JobsEnqueuer appends email jobs; the transactional variant rides the
// caller's transaction (outbox style).
type JobsEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
	CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error)
}

// CacheGateway is the slice of the cache the services use.
type CacheGateway interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, val any) error
	Delete(ctx context.Context, keys ...string) error
}
