// Package expiry implements the background expiry loop: once per second,
// release leases whose deadline has lapsed and refresh their coins from
// the chain before returning them to the pool.
package expiry

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gaslabs/station/station/chain"
	"github.com/gaslabs/station/station/metrics"
	"github.com/gaslabs/station/station/pool"
	"github.com/gaslabs/station/station/retry"
	"github.com/gaslabs/station/station/types"
)

// Interval is how often the loop wakes to sweep for expired leases.
const Interval = 1 * time.Second

// Loop owns the background expiry task. Its lifetime is bound to an
// explicit Close call rather than to garbage collection: Go has no
// destructor to stop the loop automatically.
type Loop struct {
	store  pool.Store
	chain  chain.Client
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches the expiry loop and returns immediately; call Close to
// stop it.
func Start(store pool.Store, chainClient chain.Client) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		store:  store,
		chain:  chainClient,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go l.run(ctx)
	return l
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("coin expiry loop cancelled")
			return
		case <-ticker.C:
			l.sweep(ctx)
		}
	}
}

func (l *Loop) sweep(ctx context.Context) {
	expired, err := l.store.ExpireCoins(ctx)
	if err != nil {
		log.Error("failed to expire coin reservations", "err", err)
		return
	}
	if len(expired) == 0 {
		return
	}
	log.Debug("coins expired", "count", len(expired))
	metrics.ObserveExpiry(len(expired))

	latest, err := l.chain.FetchCoins(ctx, expired)
	if err != nil {
		log.Error("failed to refresh expired coins from chain", "err", err)
		return
	}
	coins := make([]types.Coin, 0, len(latest))
	for _, c := range latest {
		coins = append(coins, c)
	}

	start := time.Now()
	err = retry.Forever(ctx, func() error {
		return l.store.AddCoins(ctx, coins)
	})
	metrics.ObserveRepool(start)
	if err != nil {
		// Only reachable if ctx was cancelled mid-retry, i.e. shutdown.
		log.Error("gave up returning expired coins to pool", "err", err)
		return
	}
	log.Info("released expired coins back to pool", "count", len(coins))
}

// Close cancels the loop and waits for it to exit. Safe to call more than
// once.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.cancel()
		<-l.done
	})
}
