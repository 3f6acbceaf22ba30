package domain

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// HybridClock hands out logical timestamps for local writes.
// Stamps follow wall time in milliseconds but never go backwards, and
// Observe pushes the clock past any remote stamp seen so far, so a local
// write always orders after what the user has already seen.
type HybridClock struct {
	mu   sync.Mutex
	wall Clock
	last Timestamp
}

func NewHybridClock(wall Clock) *HybridClock {
	if wall == nil {
		wall = SystemClock{}
	}
	return &HybridClock{wall: wall}
}

// Tick returns a strictly increasing timestamp.
func (c *HybridClock) Tick() Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := Timestamp(c.wall.Now().UnixMilli())
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}

// Observe records a remote timestamp.
func (c *HybridClock) Observe(ts Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts > c.last {
		c.last = ts
	}
}

func (c *HybridClock) Now() time.Time {
	return c.wall.Now()
}
