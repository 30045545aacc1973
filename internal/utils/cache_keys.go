package utils

// Cache key builders. Keep the prefixes in one place so invalidation and
// population always agree.

func EventCacheKey(eventID string) string {
	return "events:" + eventID
}

// EventsListCacheKey is the single cache entry for the default event
// listing. Filtered or paginated listings bypass the cache so
// invalidation stays a plain DEL.
const EventsListCacheKey = "events:all"

func AttendeeCacheKey(attendeeID string) string {
	return "attendees:" + attendeeID
}

func RegistrationsCacheKey(eventID string) string {
	return "registrations:event:" + eventID
}
