// Package retry implements the two backoff policies the gas station relies
// on: a bounded retry for signing/submission, and an unbounded retry for
// returning coins to the pool, where losing a coin is worse than blocking.
package retry

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

const (
	baseBackoff = 100 * time.Millisecond
	capBackoff  = 2 * time.Second
)

// WithMaxAttempts runs op up to n times, backing off exponentially between
// attempts (capped at capBackoff). It returns the last error if every
// attempt fails, or nil as soon as one succeeds.
func WithMaxAttempts(ctx context.Context, n int, op func() error) error {
	var err error
	backoff := baseBackoff
	for attempt := 1; attempt <= n; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt == n {
			break
		}
		log.Debug("retrying operation", "attempt", attempt, "maxAttempts", n, "err", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
	return err
}

// Forever runs op until it succeeds or ctx is cancelled, backing off
// exponentially between attempts with no attempt ceiling. Used only where
// giving up is not an option, e.g. re-pooling coins after execution.
func Forever(ctx context.Context, op func() error) error {
	backoff := baseBackoff
	for {
		err := op()
		if err == nil {
			return nil
		}
		log.Error("retrying operation indefinitely", "err", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > capBackoff {
		return capBackoff
	}
	return next
}
