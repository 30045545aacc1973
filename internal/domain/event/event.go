package event

import (
	"errors"
	"time"
)

type Event struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Date         time.Time `json:"date"`
	Location     string    `json:"location,omitempty"`
	MaxAttendees int       `json:"maxAttendees"`
	CreatedAt    time.Time `json:"createdAt"`
}

// with pointers if optional, it will be nil
type ListEventsFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Listing page bounds, shared by the HTTP layer and the list cache so
// they agree on what the default page looks like.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var (
	ErrNotFound           = errors.New("event not found")
	ErrOverlap            = errors.New("an event already exists at this time and location")
	ErrHasRegistrations   = errors.New("event has existing registrations")
	ErrCapacityBelowCount = errors.New("max attendees below current registration count")
)

type CreateEventRequest struct {
	Name         string    `json:"name" binding:"required,min=3,max=120"`
	Description  string    `json:"description" binding:"omitempty,max=1000"`
	Date         time.Time `json:"date" binding:"required"`
	Location     string    `json:"location" binding:"omitempty,min=2,max=120"`
	MaxAttendees int       `json:"maxAttendees" binding:"required,min=1,max=50000"`
}

// a partial update payload, nil fields are left untouched.
type UpdateEventRequest struct {
	Name         *string    `json:"name" binding:"omitempty,min=3,max=120"`
	Description  *string    `json:"description" binding:"omitempty,max=1000"`
	Date         *time.Time `json:"date"`
	Location     *string    `json:"location" binding:"omitempty,min=2,max=120"`
	MaxAttendees *int       `json:"maxAttendees" binding:"omitempty,min=1,max=50000"`
}

// EventWithCount pairs an event with its registration count, used by the
// most-registrations stats endpoint.
type EventWithCount struct {
	Event             Event `json:"event"`
	RegistrationCount int   `json:"registrationCount"`
}
