package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/eventlyhq/evently/internal/config"
	"github.com/eventlyhq/evently/internal/domain/event"
	"github.com/eventlyhq/evently/internal/utils"
	"github.com/gin-gonic/gin"
)

// EventsManager is the slice of the event service the handler needs.
type EventsManager interface {
	Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error)
	Get(ctx context.Context, id string) (event.Event, error)
	List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, int, error)
	Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error)
	Delete(ctx context.Context, id string) error
	MostRegistrations(ctx context.Context) (event.EventWithCount, error)
}

type EventsHandler struct {
	svc EventsManager
}

func NewEventsHandler(svc EventsManager) *EventsHandler {
	return &EventsHandler{svc: svc}
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	ev, err := h.svc.Create(cctx, req)

	if err != nil {
		if errors.Is(err, event.ErrOverlap) {
			RespondConflict(ctx, "event_overlap", "An event already exists at this time and location")
			return
		}

		RespondInternal(ctx, "Could not create event")
		return
	}

	ctx.JSON(http.StatusCreated, ev)
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	filter, ok := parseListFilter(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	events, total, err := h.svc.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list events")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":  events,
		"count":  len(events),
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *EventsHandler) GetEventById(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "event id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	ev, err := h.svc.Get(cctx, id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		RespondInternal(ctx, "Could not fetch event")
		return
	}

	ctx.JSON(http.StatusOK, ev)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "event id must be a valid UUID", nil)
		return
	}

	var req event.UpdateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	ev, err := h.svc.Update(cctx, id, req)

	if err != nil {
		switch {
		case errors.Is(err, event.ErrNotFound):
			RespondNotFound(ctx, "Event not found")
		case errors.Is(err, event.ErrOverlap):
			RespondConflict(ctx, "event_overlap", "An event already exists at this time and location")
		case errors.Is(err, event.ErrCapacityBelowCount):
			RespondConflict(ctx, "capacity_below_count", "maxAttendees cannot be lower than the current registration count")
		default:
			RespondInternal(ctx, "Could not update event")
		}
		return
	}

	ctx.JSON(http.StatusOK, ev)
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "event id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.svc.Delete(cctx, id)

	if err != nil {
		switch {
		case errors.Is(err, event.ErrNotFound):
			RespondNotFound(ctx, "Event not found")
		case errors.Is(err, event.ErrHasRegistrations):
			RespondConflict(ctx, "event_has_registrations", "Cannot delete an event with existing registrations")
		default:
			RespondInternal(ctx, "Could not delete event")
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *EventsHandler) MostRegistrations(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	top, err := h.svc.MostRegistrations(cctx)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "No events found")
			return
		}

		RespondInternal(ctx, "Could not compute event stats")
		return
	}

	ctx.JSON(http.StatusOK, top)
}

func parseListFilter(ctx *gin.Context) (event.ListEventsFilter, bool) {
	filter := event.ListEventsFilter{Limit: event.DefaultListLimit}

	if raw := ctx.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)

		if err != nil {
			RespondBadRequest(ctx, "from must be an RFC3339 timestamp", nil)
			return filter, false
		}
		filter.From = &t
	}

	if raw := ctx.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)

		if err != nil {
			RespondBadRequest(ctx, "to must be an RFC3339 timestamp", nil)
			return filter, false
		}
		filter.To = &t
	}

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n < 1 {
			RespondBadRequest(ctx, "limit must be a positive integer", nil)
			return filter, false
		}

		if n > event.MaxListLimit {
			n = event.MaxListLimit
		}
		filter.Limit = n
	}

	if raw := ctx.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n < 0 {
			RespondBadRequest(ctx, "offset must be a non-negative integer", nil)
			return filter, false
		}
		filter.Offset = n
	}

	return filter, true
}
