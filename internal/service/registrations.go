package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eventlyhq/evently/internal/capacity"
	"github.com/eventlyhq/evently/internal/domain/job"
	"github.com/eventlyhq/evently/internal/domain/registration"
	"github.com/eventlyhq/evently/internal/jobs"
	"github.com/eventlyhq/evently/internal/notifications"
	"github.com/eventlyhq/evently/internal/utils"
)

// RegistrationService coordinates the admission of attendees to events:
// existence, uniqueness and capacity checks plus the insert all happen in
// one transaction, with the confirmation email enqueued in the same
// transaction so it cannot be lost between commit and enqueue.
type RegistrationService struct {
	repo     RegistrationsRepository
	events   EventsGetter
	jobsRepo JobsEnqueuer
	cache    CacheGateway
	notifier notifications.Notifier
	log      *slog.Logger
}

func NewRegistrationService(
	repo RegistrationsRepository,
	events EventsGetter,
	jobsRepo JobsEnqueuer,
	cache CacheGateway,
	notifier notifications.Notifier,
	log *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		repo:     repo,
		events:   events,
		jobsRepo: jobsRepo,
		cache:    cache,
		notifier: notifier,
		log:      log,
	}
}

func (s *RegistrationService) Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.WithSummary, capacity.Stats, error) {
	tx, err := s.repo.BeginTx(ctx)

	if err != nil {
		return registration.WithSummary{}, capacity.Stats{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	reg, ev, att, err := s.repo.CreateTx(ctx, tx, req.EventID, req.AttendeeID)

	if err != nil {
		return registration.WithSummary{}, capacity.Stats{}, err
	}

	countAfter, err := s.repo.CountForEventTx(ctx, tx, ev.ID)

	if err != nil {
		return registration.WithSummary{}, capacity.Stats{}, err
	}

	payload, err := jobs.EmailPayload{
		To:        att.Email,
		EventName: ev.Name,
		EventDate: ev.Date,
	}.JSON()

	if err != nil {
		return registration.WithSummary{}, capacity.Stats{}, err
	}

	key := "registration:confirm:" + reg.ID

	_, err = s.jobsRepo.CreateTx(ctx, tx, job.CreateRequest{
		Type:           string(jobs.TypeRegistrationConfirmation),
		Payload:        payload,
		RunAt:          time.Now().UTC(),
		IdempotencyKey: &key,
	})

	if err != nil {
		return registration.WithSummary{}, capacity.Stats{}, err
	}

	err = tx.Commit(ctx)

	if err != nil {
		return registration.WithSummary{}, capacity.Stats{}, err
	}

	s.invalidate(ctx, ev.ID)

	stats := capacity.Compute(countAfter, ev.MaxAttendees)

	s.notifier.BroadcastToEvent(ev.ID, notifications.EventRegistrationCreated, notifications.CapacityPayload{
		EventID:        ev.ID,
		RemainingSpots: stats.AvailableSpots,
	})

	if stats.FullyBooked {
		s.notifier.BroadcastToEvent(ev.ID, notifications.EventFullyBooked, notifications.CapacityPayload{
			EventID:        ev.ID,
			RemainingSpots: 0,
		})
	} else if capacity.ShouldWarn(stats.AvailableSpots) {
		s.log.WarnContext(ctx, "event close to capacity", "event_id", ev.ID, "spots", stats.AvailableSpots)
		s.notifier.BroadcastToEvent(ev.ID, notifications.EventCapacityWarning, notifications.CapacityPayload{
			EventID:        ev.ID,
			RemainingSpots: stats.AvailableSpots,
		})
	}

	out := registration.WithSummary{
		Registration: reg,
		Event: registration.EventSummary{
			Name:     ev.Name,
			Date:     ev.Date,
			Location: ev.Location,
		},
		Attendee: registration.AttendeeSummary{
			Name:  att.Name,
			Email: att.Email,
		},
	}

	return out, stats, nil
}

func (s *RegistrationService) Remove(ctx context.Context, id string) error {
	tx, err := s.repo.BeginTx(ctx)

	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	reg, ev, att, err := s.repo.GetByIDTx(ctx, tx, id)

	if err != nil {
		return err
	}

	err = s.repo.DeleteTx(ctx, tx, id)

	if err != nil {
		return err
	}

	countAfter, err := s.repo.CountForEventTx(ctx, tx, ev.ID)

	if err != nil {
		return err
	}

	payload, err := jobs.EmailPayload{
		To:        att.Email,
		EventName: ev.Name,
		EventDate: ev.Date,
	}.JSON()

	if err != nil {
		return err
	}

	key := "registration:cancel:" + reg.ID

	_, err = s.jobsRepo.CreateTx(ctx, tx, job.CreateRequest{
		Type:           string(jobs.TypeRegistrationCancellation),
		Payload:        payload,
		RunAt:          time.Now().UTC(),
		IdempotencyKey: &key,
	})

	if err != nil {
		return err
	}

	err = tx.Commit(ctx)

	if err != nil {
		return err
	}

	s.invalidate(ctx, ev.ID)

	remaining := ev.MaxAttendees - countAfter

	s.notifier.BroadcastToEvent(ev.ID, notifications.EventCapacityUpdate, notifications.CapacityPayload{
		EventID:        ev.ID,
		RemainingSpots: remaining,
	})
	s.notifier.BroadcastToEvent(ev.ID, notifications.EventRegistrationCancelled, notifications.CapacityPayload{
		EventID:        ev.ID,
		RemainingSpots: remaining,
	})

	return nil
}

// FindByEventID returns an event's registrations with summaries. An
// event with zero registrations surfaces ErrNoRegistrations so the API
// can distinguish "empty" from "unknown event".
func (s *RegistrationService) FindByEventID(ctx context.Context, eventID string) ([]registration.WithSummary, error) {
	cacheKey := utils.RegistrationsCacheKey(eventID)

	var cached []registration.WithSummary

	if ok, cerr := s.cache.GetJSON(ctx, cacheKey, &cached); cerr == nil && ok && len(cached) > 0 {
		return cached, nil
	}

	regs, err := s.repo.ListByEvent(ctx, eventID)

	if err != nil {
		return nil, err
	}

	if len(regs) == 0 {
		return nil, registration.ErrNoRegistrations
	}

	if err := s.cache.SetJSON(ctx, cacheKey, regs); err != nil {
		s.log.WarnContext(ctx, "cache set failed", "key", cacheKey, "err", err)
	}

	return regs, nil
}

// StatsForEvent computes the derived capacity stats, never persisted.
func (s *RegistrationService) StatsForEvent(ctx context.Context, eventID string) (capacity.Stats, error) {
	ev, err := s.events.GetByID(ctx, eventID)

	if err != nil {
		return capacity.Stats{}, err
	}

	count, err := s.repo.CountForEvent(ctx, eventID)

	if err != nil {
		return capacity.Stats{}, err
	}

	return capacity.Compute(count, ev.MaxAttendees), nil
}

func (s *RegistrationService) invalidate(ctx context.Context, eventID string) {
	err := s.cache.Delete(ctx,
		utils.EventCacheKey(eventID),
		utils.EventsListCacheKey,
		utils.RegistrationsCacheKey(eventID),
	)

	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.WarnContext(ctx, "cache invalidation failed", "event_id", eventID, "err", err)
	}
}
