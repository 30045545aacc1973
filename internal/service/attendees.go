package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eventlyhq/evently/internal/domain/attendee"
	"github.com/eventlyhq/evently/internal/utils"
)

// AttendeeRegistrationsCounter is the slice of the registrations
// repository the attendee manager needs for its delete guard.
type AttendeeRegistrationsCounter interface {
	CountForAttendee(ctx context.Context, attendeeID string) (int, error)
}

// AttendeeService manages attendee records: case-insensitive email
// uniqueness on create and the no-delete-while-registered guard.
type AttendeeService struct {
	repo  AttendeesRepository
	regs  AttendeeRegistrationsCounter
	cache CacheGateway
	log   *slog.Logger
}

func NewAttendeeService(
	repo AttendeesRepository,
	regs AttendeeRegistrationsCounter,
	cache CacheGateway,
	log *slog.Logger,
) *AttendeeService {
	return &AttendeeService{
		repo:  repo,
		regs:  regs,
		cache: cache,
		log:   log,
	}
}

func (s *AttendeeService) Create(ctx context.Context, req attendee.CreateAttendeeRequest) (attendee.Attendee, error) {
	taken, err := s.repo.ExistsByEmail(ctx, req.Email)

	if err != nil {
		return attendee.Attendee{}, err
	}

	if taken {
		return attendee.Attendee{}, attendee.ErrEmailTaken
	}

	// The unique index still backstops concurrent creates; the repo maps
	// that violation to ErrEmailTaken too.
	return s.repo.Create(ctx, req)
}

func (s *AttendeeService) Get(ctx context.Context, id string) (attendee.Attendee, error) {
	cacheKey := utils.AttendeeCacheKey(id)

	var cached attendee.Attendee

	if ok, cerr := s.cache.GetJSON(ctx, cacheKey, &cached); cerr == nil && ok {
		return cached, nil
	}

	att, err := s.repo.GetByID(ctx, id)

	if err != nil {
		return attendee.Attendee{}, err
	}

	if err := s.cache.SetJSON(ctx, cacheKey, att); err != nil {
		s.log.WarnContext(ctx, "cache set failed", "key", cacheKey, "err", err)
	}

	return att, nil
}

func (s *AttendeeService) List(ctx context.Context, filter attendee.ListAttendeesFilter) ([]attendee.Attendee, error) {
	return s.repo.List(ctx, filter)
}

func (s *AttendeeService) Delete(ctx context.Context, id string) error {
	_, err := s.repo.GetByID(ctx, id)

	if err != nil {
		return err
	}

	count, err := s.regs.CountForAttendee(ctx, id)

	if err != nil {
		return err
	}

	if count > 0 {
		return attendee.ErrHasRegistrations
	}

	err = s.repo.Delete(ctx, id)

	if err != nil {
		return err
	}

	cerr := s.cache.Delete(ctx, utils.AttendeeCacheKey(id))

	if cerr != nil && !errors.Is(cerr, context.Canceled) {
		s.log.WarnContext(ctx, "cache invalidation failed", "attendee_id", id, "err", cerr)
	}

	return nil
}
