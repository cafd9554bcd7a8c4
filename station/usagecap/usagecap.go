// Package usagecap implements the sponsor's rolling daily gas-spend
// ceiling: a single counter checked and updated atomically across
// concurrently executing transactions.
package usagecap

import (
	"sync"
	"time"

	"github.com/gaslabs/station/station/errors"
	"github.com/gaslabs/station/station/metrics"
)

const window = 24 * time.Hour

// Cap tracks spend against a rolling daily ceiling.
type Cap struct {
	mu          sync.Mutex
	dailyCap    uint64
	windowStart time.Time
	spent       uint64
}

// New returns a Cap with an empty window starting now.
func New(dailyCap uint64) *Cap {
	return &Cap{
		dailyCap:    dailyCap,
		windowStart: time.Now(),
	}
}

// rollIfNeeded resets the window when 24h have elapsed. Caller holds mu.
func (c *Cap) rollIfNeeded(now time.Time) {
	if now.Sub(c.windowStart) >= window {
		c.windowStart = now
		c.spent = 0
	}
}

// CheckUsage fails with errors.ErrDailyCapExceeded if the sponsor is at or
// past its ceiling and the window has not yet rolled. Rolling is checked
// and applied as part of this call.
func (c *Cap) CheckUsage() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rollIfNeeded(time.Now())
	if c.spent >= c.dailyCap {
		return errors.ErrDailyCapExceeded
	}
	return nil
}

// AddUsage atomically adds netGasUsed (which may be negative, on refund
// paths) to the window's spend, saturating at zero, and returns the
// post-update value.
func (c *Cap) AddUsage(netGasUsed int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rollIfNeeded(time.Now())

	signed := int64(c.spent) + netGasUsed
	if signed < 0 {
		signed = 0
	}
	c.spent = uint64(signed)
	metrics.SetDailyUsage(int64(c.spent))
	return c.spent
}
