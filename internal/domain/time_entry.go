package domain

import "time"

// TimeEntry is a provider-normalized time entry. Provider-native
// duration shapes (Toggl's signed seconds, Clockify's ISO-8601 period
// string) are decoded by the adapters; by the time an entry reaches
// the sync engine, DurationSec is non-negative and Running is the only
// timer sentinel left.
type TimeEntry struct {
	ProjectID   string
	Description string
	Start       time.Time
	DurationSec int64
	Running     bool
	// RawDuration keeps the provider's original duration value for
	// invalid-duration report lines.
	RawDuration string
}
