package secs

import (
	"time"
)

// DeltaTime is the time elapsed since the previous tick.
// Scripts see it as "delta_time", in seconds.
type DeltaTime time.Duration

// Duration returns the delta as a time.Duration.
func (d DeltaTime) Duration() time.Duration { return time.Duration(d) }

// TickCount is the number of ticks started so far.
// Scripts see it as "tick".
type TickCount uint64

// Names of the clock resources in the resource table.
const (
	DeltaTimeResource = "delta_time"
	TickResource      = "tick"
)

// clockSystem advances the clock resources. It runs in the Before stage.
type clockSystem struct {
	Delta *DeltaTime `secs:"res,mut"`
	Tick  *TickCount `secs:"res,mut"`

	now  func() time.Time
	last time.Time
}

func newClockSystem(now func() time.Time) *clockSystem {
	if now == nil {
		now = time.Now
	}
	return &clockSystem{now: now}
}

// Run implements Runnable.
func (c *clockSystem) Run() error {
	t := c.now()
	if c.last.IsZero() {
		*c.Delta = 0
	} else {
		*c.Delta = DeltaTime(t.Sub(c.last))
	}
	c.last = t
	*c.Tick++
	return nil
}
