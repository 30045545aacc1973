package jobs

import (
	"encoding/json"
	"time"
)

// EmailPayload is shared by all three email job kinds; the job type picks
// the subject line and template.
type EmailPayload struct {
	To        string    `json:"to"`
	EventName string    `json:"eventName"`
	EventDate time.Time `json:"eventDate"`
}

func (p EmailPayload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
