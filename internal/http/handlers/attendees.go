package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eventlyhq/evently/internal/config"
	"github.com/eventlyhq/evently/internal/domain/attendee"
	"github.com/eventlyhq/evently/internal/utils"
	"github.com/gin-gonic/gin"
)

type AttendeesManager interface {
	Create(ctx context.Context, req attendee.CreateAttendeeRequest) (attendee.Attendee, error)
	Get(ctx context.Context, id string) (attendee.Attendee, error)
	List(ctx context.Context, filter attendee.ListAttendeesFilter) ([]attendee.Attendee, error)
	Delete(ctx context.Context, id string) error
}

type AttendeesHandler struct {
	svc AttendeesManager
}

func NewAttendeesHandler(svc AttendeesManager) *AttendeesHandler {
	return &AttendeesHandler{svc: svc}
}

func (h *AttendeesHandler) CreateAttendee(ctx *gin.Context) {
	var req attendee.CreateAttendeeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	att, err := h.svc.Create(cctx, req)

	if err != nil {
		if errors.Is(err, attendee.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "An attendee with this email already exists")
			return
		}

		RespondInternal(ctx, "Could not create attendee")
		return
	}

	ctx.JSON(http.StatusCreated, att)
}

func (h *AttendeesHandler) ListAttendees(ctx *gin.Context) {
	filter := attendee.ListAttendeesFilter{
		Search: ctx.Query("search"),
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	attendees, err := h.svc.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list attendees")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": attendees,
		"count": len(attendees),
	})
}

func (h *AttendeesHandler) GetAttendeeById(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "attendee id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	att, err := h.svc.Get(cctx, id)

	if err != nil {
		if errors.Is(err, attendee.ErrNotFound) {
			RespondNotFound(ctx, "Attendee not found")
			return
		}

		RespondInternal(ctx, "Could not fetch attendee")
		return
	}

	ctx.JSON(http.StatusOK, att)
}

func (h *AttendeesHandler) DeleteAttendee(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "attendee id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.svc.Delete(cctx, id)

	if err != nil {
		switch {
		case errors.Is(err, attendee.ErrNotFound):
			RespondNotFound(ctx, "Attendee not found")
		case errors.Is(err, attendee.ErrHasRegistrations):
			RespondConflict(ctx, "attendee_has_registrations", "Cannot delete an attendee with existing registrations")
		default:
			RespondInternal(ctx, "Could not delete attendee")
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}
