package constants

import "time"

// RFC 3339 date-time format string.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// ISOTimestampFormat matches JavaScript's Date.toISOString output and is the
// format written into the timestamp column. Always format in UTC.
const ISOTimestampFormat = "2006-01-02T15:04:05.000Z"

// Default rate limiting configuration
const (
	DefaultRateLimitRequests      = 100
	DefaultRateLimitWindowMinutes = 1
)

// Queue position policy.
const (
	// QueuePositionBase is added to the number of waitlist rows to form the
	// displayed queue position.
	QueuePositionBase = 500
	// MockQueuePosition is returned when no backing store is configured.
	MockQueuePosition = 542
)

// DefaultEventPage is recorded when an event does not name its page.
const DefaultEventPage = "/"

func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}

// FormatTimestamp formats t in UTC using ISOTimestampFormat.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(ISOTimestampFormat)
}
