package testfixtures

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ReferenceTime is the instant every test clock starts from.
func ReferenceTime() time.Time {
	return time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
}

// Clock is a fake clock that stores use as their Now function.
type Clock struct {
	*clockwork.FakeClock

	tickMu sync.Mutex
}

func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{FakeClock: clockwork.NewFakeClockAt(start)}
}

// Tick returns the current instant and then moves the clock forward by step.
func (c *Clock) Tick(step time.Duration) func() time.Time {
	return func() time.Time {
		c.tickMu.Lock()
		defer c.tickMu.Unlock()
		now := c.Now()
		c.Advance(step)
		return now
	}
}
