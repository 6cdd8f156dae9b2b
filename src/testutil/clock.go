package testutil

import (
	"sync"
	"time"
)

// Clock is a manual clock; each Now call advances it by Step.
type Clock struct {
	mu   sync.Mutex
	t    time.Time
	Step time.Duration
}

func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{t: start, Step: step}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.Step)
	return now
}
