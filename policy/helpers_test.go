package policy

import "time"

// fixedTime returns a deterministic reference instant used across policy
// tests so window/expiry arithmetic is reproducible.
func fixedTime() time.Time {
	return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
}
