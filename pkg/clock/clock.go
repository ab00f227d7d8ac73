package clock

import (
	"sync"
	"time"
)

// Clock is a trusted time source. Game rules read the current time
// exclusively through this interface so that callers can never supply
// their own timestamps for scoring.
type Clock interface {
	// NowMs returns the current time in milliseconds since the Unix epoch.
	NowMs() int64
}

// SystemClock reads the host's wall clock.
type SystemClock struct{}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) NowMs() int64 {
	return time.Now().UnixMilli()
}

// ManualClock is a Clock whose time only moves when told to.
// It is safe for concurrent use.
type ManualClock struct {
	lock sync.Mutex
	now  int64
}

func NewManualClock(nowMs int64) *ManualClock {
	return &ManualClock{now: nowMs}
}

func (c *ManualClock) NowMs() int64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// SetMs sets the current time.
func (c *ManualClock) SetMs(nowMs int64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = nowMs
}

// AdvanceMs moves the clock forward by d milliseconds.
func (c *ManualClock) AdvanceMs(d int64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now += d
}
