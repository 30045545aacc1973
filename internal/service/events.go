package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eventlyhq/evently/internal/domain/event"
	"github.com/eventlyhq/evently/internal/notifications"
	"github.com/eventlyhq/evently/internal/utils"
)

// overlapWindow is how close two events at the same location may be
// scheduled. Events within an hour of each other at one venue clash.
const overlapWindow = time.Hour

// RegistrationsCounter is the slice of the registrations repository the
// event manager needs for its guards.
type RegistrationsCounter interface {
	CountForEvent(ctx context.Context, eventID string) (int, error)
}

// EventService manages the event lifecycle: scheduling conflicts on
// create and update, the capacity floor when shrinking an event, and the
// no-delete-while-registered guard.
type EventService struct {
	repo     EventsRepository
	regs     RegistrationsCounter
	cache    CacheGateway
	notifier notifications.Notifier
	log      *slog.Logger
}

func NewEventService(
	repo EventsRepository,
	regs RegistrationsCounter,
	cache CacheGateway,
	notifier notifications.Notifier,
	log *slog.Logger,
) *EventService {
	return &EventService{
		repo:     repo,
		regs:     regs,
		cache:    cache,
		notifier: notifier,
		log:      log,
	}
}

func (s *EventService) Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
	if req.Location != "" {
		clash, err := s.repo.FindOverlapping(ctx, req.Date, req.Location, overlapWindow, "")

		if err != nil {
			return event.Event{}, err
		}

		if clash {
			return event.Event{}, event.ErrOverlap
		}
	}

	ev, err := s.repo.Create(ctx, req)

	if err != nil {
		return event.Event{}, err
	}

	s.invalidateList(ctx)

	s.notifier.Broadcast(notifications.EventNewEvent, ev)

	return ev, nil
}

func (s *EventService) Get(ctx context.Context, id string) (event.Event, error) {
	cacheKey := utils.EventCacheKey(id)

	var cached event.Event

	if ok, cerr := s.cache.GetJSON(ctx, cacheKey, &cached); cerr == nil && ok {
		return cached, nil
	}

	ev, err := s.repo.GetByID(ctx, id)

	if err != nil {
		return event.Event{}, err
	}

	if err := s.cache.SetJSON(ctx, cacheKey, ev); err != nil {
		s.log.WarnContext(ctx, "cache set failed", "key", cacheKey, "err", err)
	}

	return ev, nil
}

// List caches only the default unfiltered first page; filtered,
// paginated or custom-limit requests go straight to the database. The
// limit is part of the check so a narrow page never poisons the shared
// cache entry.
func (s *EventService) List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, int, error) {
	cacheable := filter.From == nil && filter.To == nil &&
		filter.Offset == 0 && filter.Limit == event.DefaultListLimit

	type cachedListing struct {
		Events []event.Event `json:"events"`
		Total  int           `json:"total"`
	}

	if cacheable {
		var cached cachedListing

		if ok, cerr := s.cache.GetJSON(ctx, utils.EventsListCacheKey, &cached); cerr == nil && ok {
			return cached.Events, cached.Total, nil
		}
	}

	events, total, err := s.repo.List(ctx, filter)

	if err != nil {
		return nil, 0, err
	}

	if cacheable {
		if err := s.cache.SetJSON(ctx, utils.EventsListCacheKey, cachedListing{Events: events, Total: total}); err != nil {
			s.log.WarnContext(ctx, "cache set failed", "key", utils.EventsListCacheKey, "err", err)
		}
	}

	return events, total, nil
}

func (s *EventService) Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error) {
	ev, err := s.repo.GetByID(ctx, id)

	if err != nil {
		return event.Event{}, err
	}

	// Re-check scheduling conflicts when the slot or the venue moves.
	if req.Date != nil || req.Location != nil {
		date := ev.Date
		location := ev.Location

		if req.Date != nil {
			date = *req.Date
		}
		if req.Location != nil {
			location = *req.Location
		}

		if location != "" {
			clash, oerr := s.repo.FindOverlapping(ctx, date, location, overlapWindow, ev.ID)

			if oerr != nil {
				return event.Event{}, oerr
			}

			if clash {
				return event.Event{}, event.ErrOverlap
			}
		}
	}

	// Shrinking capacity below the current headcount would strand
	// already-confirmed registrations.
	if req.MaxAttendees != nil {
		count, cerr := s.regs.CountForEvent(ctx, ev.ID)

		if cerr != nil {
			return event.Event{}, cerr
		}

		if *req.MaxAttendees < count {
			return event.Event{}, event.ErrCapacityBelowCount
		}
	}

	ev = event.ApplyUpdate(ev, req)

	updated, err := s.repo.Update(ctx, ev)

	if err != nil {
		return event.Event{}, err
	}

	s.invalidate(ctx, updated.ID)

	s.notifier.Broadcast(notifications.EventUpdated, updated)
	s.notifier.BroadcastToEvent(updated.ID, notifications.EventUpdated, updated)

	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	ev, err := s.repo.GetByID(ctx, id)

	if err != nil {
		return err
	}

	count, err := s.regs.CountForEvent(ctx, id)

	if err != nil {
		return err
	}

	if count > 0 {
		return event.ErrHasRegistrations
	}

	err = s.repo.Delete(ctx, id)

	if err != nil {
		return err
	}

	s.invalidate(ctx, id)

	s.notifier.Broadcast(notifications.EventDeleted, map[string]string{"id": ev.ID, "name": ev.Name})

	return nil
}

func (s *EventService) MostRegistrations(ctx context.Context) (event.EventWithCount, error) {
	return s.repo.MostRegistrations(ctx)
}

func (s *EventService) invalidate(ctx context.Context, eventID string) {
	err := s.cache.Delete(ctx,
		utils.EventCacheKey(eventID),
		utils.EventsListCacheKey,
		utils.RegistrationsCacheKey(eventID),
	)

	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.WarnContext(ctx, "cache invalidation failed", "event_id", eventID, "err", err)
	}
}

func (s *EventService) invalidateList(ctx context.Context) {
	err := s.cache.Delete(ctx, utils.EventsListCacheKey)

	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.WarnContext(ctx, "cache invalidation failed", "key", utils.EventsListCacheKey, "err", err)
	}
}
