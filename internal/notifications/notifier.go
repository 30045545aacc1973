// Package notifications fans structured events out to subscribers, either
// globally or scoped to a single event "room". The transport that carries
// envelopes to actual clients (websocket, SSE, ...) plugs in as a
// subscriber; services only talk to the Notifier interface.
package notifications

import "time"

// Event names pushed over the channel.
const (
	EventNewEvent              = "newEvent"
	EventUpdated               = "eventUpdated"
	EventDeleted               = "eventDeleted"
	EventCapacityUpdate        = "eventCapacityUpdate"
	EventCapacityWarning       = "capacityWarning"
	EventFullyBooked           = "fullyBooked"
	EventRegistrationCreated   = "registrationCreated"
	EventRegistrationCancelled = "registrationCancelled"
)

// Envelope is the wire shape of every notification.
type Envelope struct {
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// CapacityPayload accompanies capacity-related events.
type CapacityPayload struct {
	EventID        string `json:"eventId"`
	RemainingSpots int    `json:"remainingSpots"`
}

type Notifier interface {
	// Broadcast pushes to every connected subscriber.
	Broadcast(event string, data any)
	// BroadcastToEvent pushes to subscribers that joined the event's room.
	BroadcastToEvent(eventID, event string, data any)
}
