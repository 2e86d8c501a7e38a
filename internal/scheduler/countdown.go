package scheduler

import (
	"sync"
	"time"
)

// Countdown is the display-only view of the next scheduled fetch, in whole seconds.
type Countdown struct {
	mu       sync.Mutex
	deadline time.Time
	nowFn    func() time.Time
}

func NewCountdown() *Countdown {
	return &Countdown{nowFn: time.Now}
}

func (c *Countdown) Reset(d time.Duration) {
	c.mu.Lock()
	c.deadline = c.nowFn().Add(d)
	c.mu.Unlock()
}

func (c *Countdown) NextAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline
}

// Remaining rounds up to the next second and never goes below zero.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deadline.IsZero() {
		return 0
	}
	left := c.deadline.Sub(c.nowFn())
	if left <= 0 {
		return 0
	}
	secs := int(left / time.Second)
	if left%time.Second != 0 {
		secs++
	}
	return secs
}
