package registration

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	AttendeeID   string    `json:"attendeeId"`
	RegisteredAt time.Time `json:"registeredAt"`
}

var (
	ErrAlreadyRegistered = errors.New("attendee is already registered for this event")
	ErrEventFull         = errors.New("event has reached maximum capacity")
	ErrNotFound          = errors.New("registration not found")
	ErrNoRegistrations   = errors.New("no registrations found for event")
)

type CreateRegistrationRequest struct {
	EventID    string `json:"eventId" binding:"required,uuid"`
	AttendeeID string `json:"attendeeId" binding:"required,uuid"`
}

// EventSummary and AttendeeSummary are the slices of the related entities
// that ride along on a registration response.
type EventSummary struct {
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Location string    `json:"location,omitempty"`
}

type AttendeeSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// WithSummary is the response projection for a registration with its
// event and attendee loaded.
type WithSummary struct {
	Registration
	Event    EventSummary    `json:"event"`
	Attendee AttendeeSummary `json:"attendee"`
}

func New(eventID, attendeeID string) Registration {
	return Registration{
		ID:           uuid.NewString(),
		EventID:      eventID,
		AttendeeID:   attendeeID,
		RegisteredAt: time.Now().UTC(),
	}
}
