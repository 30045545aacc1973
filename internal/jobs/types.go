package jobs

type JobType string

const (
	TypeRegistrationConfirmation JobType = "email.registration_confirmation"
	TypeRegistrationCancellation JobType = "email.registration_cancellation"
	TypeEventReminder            JobType = "email.event_reminder"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case TypeRegistrationConfirmation, TypeRegistrationCancellation, TypeEventReminder:
		return true
	default:
		return false
	}
}
