package usagecap

import (
	"sync"
	"testing"
	"time"

	"github.com/gaslabs/station/station/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapRollover(t *testing.T) {
	c := &Cap{
		dailyCap:    1000,
		spent:       900,
		windowStart: time.Now().Add(-25 * time.Hour),
	}

	require.NoError(t, c.CheckUsage())
	assert.Equal(t, uint64(0), c.spent)

	newSpent := c.AddUsage(400)
	assert.Equal(t, uint64(400), newSpent)
}

func TestCapExceeded(t *testing.T) {
	c := New(100)
	c.AddUsage(100)
	err := c.CheckUsage()
	assert.ErrorIs(t, err, errors.ErrDailyCapExceeded)
}

func TestAddUsageSaturatesAtZero(t *testing.T) {
	c := New(1000)
	c.AddUsage(50)
	got := c.AddUsage(-500)
	assert.Equal(t, uint64(0), got)
}

func TestCapMonotonicityWithinWindow(t *testing.T) {
	c := New(1_000_000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddUsage(10)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(500), c.spent)
}
