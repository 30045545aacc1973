package jobs

import (
	"fmt"
	"time"
)

// Body renders the HTML body for an email job kind.
func Body(t JobType, eventName string, eventDate time.Time) string {
	date := eventDate.Format("Jan 2, 2006 15:04 MST")

	switch t {
	case TypeRegistrationConfirmation:
		return fmt.Sprintf(`<h1>Registration Confirmed!</h1>
<p>You have successfully registered for %s.</p>
<p>Event Date: %s</p>
<p>We look forward to seeing you there!</p>`, eventName, date)

	case TypeRegistrationCancellation:
		return fmt.Sprintf(`<h1>Registration Cancelled</h1>
<p>Your registration for %s has been cancelled.</p>
<p>Event Date: %s</p>
<p>If you did not request this cancellation, please contact us.</p>`, eventName, date)

	case TypeEventReminder:
		return fmt.Sprintf(`<h1>Event Reminder</h1>
<p>This is a reminder that %s is coming up!</p>
<p>Event Date: %s</p>
<p>We look forward to seeing you there!</p>`, eventName, date)

	default:
		return ""
	}
}
