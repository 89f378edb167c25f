package clock

import "time"

// Clocker reports the current instant.
type Clocker interface {
	Now() time.Time
}

// System reads the host clock in UTC.
type System struct{}

// New returns the host clock.
func New() *System {
	return &System{}
}

// Now returns the current time in UTC.
func (*System) Now() time.Time {
	return time.Now().UTC()
}
