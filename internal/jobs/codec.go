package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodePayload unmarshals a raw job payload for a known email job type
// and rejects obviously unusable payloads before any send is attempted.
func DecodePayload(t JobType, raw json.RawMessage) (EmailPayload, error) {
	if !t.IsValid() {
		return EmailPayload{}, ErrInvalidJobType
	}
	if len(raw) == 0 {
		return EmailPayload{}, ErrInvalidJobPayload
	}

	var p EmailPayload

	if err := json.Unmarshal(raw, &p); err != nil {
		return EmailPayload{}, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	if strings.TrimSpace(p.To) == "" || strings.TrimSpace(p.EventName) == "" {
		return EmailPayload{}, ErrInvalidJobPayload
	}

	return p, nil
}

// Subject returns the subject line for an email job kind.
func Subject(t JobType, eventName string) string {
	switch t {
	case TypeRegistrationConfirmation:
		return "Registration Confirmed: " + eventName
	case TypeRegistrationCancellation:
		return "Registration Cancelled: " + eventName
	case TypeEventReminder:
		return "Reminder: " + eventName
	default:
		return eventName
	}
}
