package clock

import "time"

// Clock is the time source for room and participant timestamps. Tests
// substitute a mock so JoinedAt/UpdatedAt values are deterministic.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}
