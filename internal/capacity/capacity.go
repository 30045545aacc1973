// Package capacity computes registration statistics for an event.
// Pure functions, no side effects.
package capacity

const (
	// WarningThreshold is the spot count at or below which a capacity
	// warning is broadcast.
	WarningThreshold = 2
	// CriticalThreshold marks a fully booked event.
	CriticalThreshold = 0
)

type Stats struct {
	TotalRegistrations int  `json:"totalRegistrations"`
	AvailableSpots     int  `json:"availableSpots"`
	FullyBooked        bool `json:"isFullyBooked"`
}

// Compute derives the stats for an event given its current registration
// count and its maximum attendees.
func Compute(currentRegistrations, maxAttendees int) Stats {
	available := maxAttendees - currentRegistrations

	return Stats{
		TotalRegistrations: currentRegistrations,
		AvailableSpots:     available,
		FullyBooked:        available <= CriticalThreshold,
	}
}

// ShouldWarn reports whether a low-capacity warning should be sent:
// spots remaining, but at or below the warning threshold.
func ShouldWarn(availableSpots int) bool {
	return availableSpots > CriticalThreshold && availableSpots <= WarningThreshold
}
