package event

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateEventRequest) Event {
	return Event{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		Date:         req.Date,
		Location:     req.Location,
		MaxAttendees: req.MaxAttendees,
		CreatedAt:    time.Now().UTC(),
	}
}

// ApplyUpdate merges a partial update into an existing event.
func ApplyUpdate(e Event, req UpdateEventRequest) Event {
	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.MaxAttendees != nil {
		e.MaxAttendees = *req.MaxAttendees
	}
	return e
}
