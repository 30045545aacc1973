package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eventlyhq/evently/internal/capacity"
	"github.com/eventlyhq/evently/internal/config"
	"github.com/eventlyhq/evently/internal/domain/attendee"
	"github.com/eventlyhq/evently/internal/domain/event"
	"github.com/eventlyhq/evently/internal/domain/registration"
	"github.com/eventlyhq/evently/internal/utils"
	"github.com/gin-gonic/gin"
)

// RegistrationsManager is the slice of the registration service the
// handler needs. The service owns the transaction, the capacity check
// and the side effects; the handler only maps errors to statuses.
type RegistrationsManager interface {
	Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.WithSummary, capacity.Stats, error)
	Remove(ctx context.Context, id string) error
	FindByEventID(ctx context.Context, eventID string) ([]registration.WithSummary, error)
	StatsForEvent(ctx context.Context, eventID string) (capacity.Stats, error)
}

type RegistrationHandler struct {
	svc RegistrationsManager
}

func NewRegistrationHandler(svc RegistrationsManager) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

func (h *RegistrationHandler) Register(ctx *gin.Context) {
	var req registration.CreateRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	reg, stats, err := h.svc.Create(cctx, req)

	if err != nil {
		switch {
		case errors.Is(err, registration.ErrAlreadyRegistered):
			RespondConflict(ctx, "already_registered", "This attendee is already registered for this event")
		case errors.Is(err, registration.ErrEventFull):
			RespondConflict(ctx, "event_full", "This event is already at full capacity")
		case errors.Is(err, event.ErrNotFound):
			RespondNotFound(ctx, "Event not found")
		case errors.Is(err, attendee.ErrNotFound):
			RespondNotFound(ctx, "Attendee not found")
		default:
			RespondInternal(ctx, "Could not register for event")
		}
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"registration": reg,
		"capacity":     stats,
	})
}

func (h *RegistrationHandler) ListForEvent(ctx *gin.Context) {
	eventID := ctx.Param("eventId")

	if !utils.IsUUID(eventID) {
		RespondBadRequest(ctx, "event id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	regs, err := h.svc.FindByEventID(cctx, eventID)

	if err != nil {
		switch {
		case errors.Is(err, event.ErrNotFound):
			RespondNotFound(ctx, "Event not found")
		case errors.Is(err, registration.ErrNoRegistrations):
			RespondNotFound(ctx, "No registrations found for this event")
		default:
			RespondInternal(ctx, "Could not list registrations")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"eventId":       eventID,
		"count":         len(regs),
		"registrations": regs,
	})
}

func (h *RegistrationHandler) Stats(ctx *gin.Context) {
	eventID := ctx.Param("eventId")

	if !utils.IsUUID(eventID) {
		RespondBadRequest(ctx, "event id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	stats, err := h.svc.StatsForEvent(cctx, eventID)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		RespondInternal(ctx, "Could not compute registration stats")
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func (h *RegistrationHandler) Cancel(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "registration id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	err := h.svc.Remove(cctx, id)

	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			RespondNotFound(ctx, "Registration not found")
			return
		}

		RespondInternal(ctx, "Could not cancel registration")
		return
	}

	ctx.Status(http.StatusNoContent)
}
