package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type StaleEventsDeleter interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleanup deletes events whose date is older than the retention window.
// Registrations go with them via the cascade on the foreign key.
type Cleanup struct {
	events    StaleEventsDeleter
	retention time.Duration
	interval  time.Duration
	log       *slog.Logger
}

func NewCleanup(events StaleEventsDeleter, retention time.Duration, log *slog.Logger) *Cleanup {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	return &Cleanup{
		events:    events,
		retention: retention,
		interval:  24 * time.Hour,
		log:       log,
	}
}

func (c *Cleanup) Run(ctx context.Context) {
	c.Sweep(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep runs one cleanup pass and returns the number of deleted events.
func (c *Cleanup) Sweep(ctx context.Context) int64 {
	cutoff := time.Now().UTC().Add(-c.retention)

	deleted, err := c.events.DeleteOlderThan(ctx, cutoff)

	if err != nil {
		c.log.ErrorContext(ctx, "cleanup sweep failed", "err", err)
		return 0
	}

	if deleted > 0 {
		c.log.InfoContext(ctx, "cleanup sweep complete", "deleted", deleted, "cutoff", cutoff)
	}

	return deleted
}
