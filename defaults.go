package featherquery

import "time"

const (
	// DefaultStaleTime is how long a committed value is served without
	// revalidation.
	DefaultStaleTime = 30 * time.Second

	defaultRaceSweep     = 5 * time.Minute
	defaultRaceRetention = time.Hour
)

// DefaultRetryDelay is the mutation backoff: 1s, 2s, 4s, ...
func DefaultRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 31 {
		attempt = 31
	}
	return time.Second << (attempt - 1)
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
