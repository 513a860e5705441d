package ports

import "time"

// Clock abstracts time for day-count threshold calculations and stale
// session expiry, so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}
