package attendee

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Attendee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	ErrNotFound         = errors.New("attendee not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrHasRegistrations = errors.New("attendee has existing registrations")
)

type CreateAttendeeRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=100"`
	Email string `json:"email" binding:"required,email"`
}

// ListAttendeesFilter carries the optional search term matched against
// name and email.
type ListAttendeesFilter struct {
	Search string
}

func NewFromCreateRequest(req CreateAttendeeRequest) Attendee {
	return Attendee{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
}
