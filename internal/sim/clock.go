package sim

import "time"

// FixedClock reports the same step every tick, for deterministic runs.
type FixedClock struct {
	Step float64
}

// FixedRate returns a clock stepping at hz ticks per second.
func FixedRate(hz float64) FixedClock {
	if hz <= 0 {
		return FixedClock{}
	}
	return FixedClock{Step: 1 / hz}
}

func (c FixedClock) DeltaTime() float64 { return c.Step }

// WallClock reports real elapsed time between calls. The first call returns 0.
type WallClock struct {
	now  func() time.Time
	last time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{now: time.Now}
}

func (c *WallClock) DeltaTime() float64 {
	t := c.now()
	if c.last.IsZero() {
		c.last = t
		return 0
	}
	dt := t.Sub(c.last).Seconds()
	c.last = t
	return dt
}
