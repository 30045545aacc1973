// Package scheduler runs the periodic background passes: the hourly
// reminder scan and the daily cleanup of stale events. Both live in the
// worker process.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/eventlyhq/evently/internal/domain/attendee"
	"github.com/eventlyhq/evently/internal/domain/event"
	"github.com/eventlyhq/evently/internal/domain/job"
	"github.com/eventlyhq/evently/internal/jobs"
	"github.com/eventlyhq/evently/internal/repo/postgres"
)

type UpcomingEventsLister interface {
	ListInWindow(ctx context.Context, from, to time.Time) ([]event.Event, error)
}

type EventAttendeesLister interface {
	ListAttendeesForEvent(ctx context.Context, eventID string) ([]attendee.Attendee, error)
}

type ReminderEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

// Reminder scans for events starting within the lookahead window and
// enqueues one reminder email per registered attendee. The idempotency
// key reminder:<eventID>:<attendeeID> makes repeated scans harmless.
type Reminder struct {
	events    UpcomingEventsLister
	regs      EventAttendeesLister
	jobsRepo  ReminderEnqueuer
	lookahead time.Duration
	interval  time.Duration
	log       *slog.Logger
}

func NewReminder(
	events UpcomingEventsLister,
	regs EventAttendeesLister,
	jobsRepo ReminderEnqueuer,
	lookahead time.Duration,
	log *slog.Logger,
) *Reminder {
	if lookahead <= 0 {
		lookahead = 24 * time.Hour
	}

	return &Reminder{
		events:    events,
		regs:      regs,
		jobsRepo:  jobsRepo,
		lookahead: lookahead,
		interval:  time.Hour,
		log:       log,
	}
}

func (r *Reminder) Run(ctx context.Context) {
	// first pass right away, then hourly
	r.Scan(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Scan(ctx)
		}
	}
}

// Scan runs one reminder pass and returns how many jobs were enqueued.
func (r *Reminder) Scan(ctx context.Context) int {
	now := time.Now().UTC()

	events, err := r.events.ListInWindow(ctx, now, now.Add(r.lookahead))

	if err != nil {
		r.log.ErrorContext(ctx, "reminder scan failed", "err", err)
		return 0
	}

	enqueued := 0

	for _, ev := range events {
		attendees, err := r.regs.ListAttendeesForEvent(ctx, ev.ID)

		if err != nil {
			r.log.ErrorContext(ctx, "reminder attendee load failed", "event_id", ev.ID, "err", err)
			continue
		}

		for _, att := range attendees {
			if r.enqueue(ctx, ev, att) {
				enqueued++
			}
		}
	}

	if enqueued > 0 {
		r.log.InfoContext(ctx, "reminder scan complete", "events", len(events), "enqueued", enqueued)
	}

	return enqueued
}

func (r *Reminder) enqueue(ctx context.Context, ev event.Event, att attendee.Attendee) bool {
	payload, err := jobs.EmailPayload{
		To:        att.Email,
		EventName: ev.Name,
		EventDate: ev.Date,
	}.JSON()

	if err != nil {
		r.log.ErrorContext(ctx, "reminder payload encode failed", "event_id", ev.ID, "err", err)
		return false
	}

	key := "reminder:" + ev.ID + ":" + att.ID

	_, err = r.jobsRepo.Create(ctx, job.CreateRequest{
		Type:           string(jobs.TypeEventReminder),
		Payload:        payload,
		RunAt:          time.Now().UTC(),
		IdempotencyKey: &key,
	})

	if err != nil {
		// already enqueued by a previous scan
		if postgres.IsUniqueViolation(err) {
			return false
		}

		r.log.ErrorContext(ctx, "reminder enqueue failed", "event_id", ev.ID, "attendee_id", att.ID, "err", err)
		return false
	}

	return true
}
