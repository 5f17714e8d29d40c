package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// Scheduling functions never read it themselves: callers turn it into a
// reference Date once per computation with Today.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Today returns the local calendar date of c.
func Today(c Clock) Date {
	return DateOf(c.Now())
}
