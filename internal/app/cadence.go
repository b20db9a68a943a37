package app

import "time"

// cadence is per-interval timer state checked from the main loop. A zero
// last fires on the first check; seeding last with the start time delays
// the first fire by one full interval.
type cadence struct {
	every time.Duration
	last  time.Time
}

// due reports whether the interval has elapsed and, if so, marks the
// cadence as fired at now.
func (c *cadence) due(now time.Time) bool {
	if !c.last.IsZero() && now.Sub(c.last) < c.every {
		return false
	}
	c.last = now
	return true
}
