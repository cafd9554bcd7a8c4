package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gaslabs/station/station/errors"
	"github.com/gaslabs/station/station/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCoin(t *testing.T, b byte, balance uint64) types.Coin {
	t.Helper()
	var c types.Coin
	c.ObjectID[31] = b
	c.Version = 1
	c.Balance = balance
	return c
}

func TestLeaseBasic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddCoins(ctx, []types.Coin{
		mustCoin(t, 1, 100),
		mustCoin(t, 2, 200),
		mustCoin(t, 3, 300),
	}))

	_, coins, err := s.LeaseCoins(ctx, 250, 60*time.Second)
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, uint64(100), coins[0].Balance)
	assert.Equal(t, uint64(200), coins[1].Balance)

	n, err := s.AvailableCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestLeaseInsufficientCapacity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddCoins(ctx, []types.Coin{mustCoin(t, 1, 10)}))

	_, _, err := s.LeaseCoins(ctx, 1000, time.Second)
	assert.ErrorIs(t, err, errors.ErrInsufficientCapacity)
}

func TestLeaseZeroBudgetYieldsNoEmptyReservation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddCoins(ctx, []types.Coin{mustCoin(t, 1, 10)}))

	_, coins, err := s.LeaseCoins(ctx, 0, time.Second)
	assert.ErrorIs(t, err, errors.ErrInsufficientCapacity)
	assert.Nil(t, coins)

	n, err := s.AvailableCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n, "coin must remain available, not leased into an empty reservation")
}

func TestExpiryRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	coin := mustCoin(t, 1, 100)
	require.NoError(t, s.AddCoins(ctx, []types.Coin{coin}))

	resID, leased, err := s.LeaseCoins(ctx, 50, 1*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, leased, 1)

	time.Sleep(50 * time.Millisecond)

	expired, err := s.ExpireCoins(ctx)
	require.NoError(t, err)
	require.Equal(t, []types.ObjectID{coin.ObjectID}, expired)

	require.NoError(t, s.AddCoins(ctx, leased))

	_, _, err = s.LeaseCoins(ctx, 50, 60*time.Second)
	require.NoError(t, err)

	// The expired reservation is gone; marking it ready now fails.
	err = s.MarkReadyForExecution(ctx, resID)
	assert.ErrorIs(t, err, errors.ErrUnknownReservation)
}

func TestReadyForExecutionProtectsFromExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	coin := mustCoin(t, 1, 100)
	require.NoError(t, s.AddCoins(ctx, []types.Coin{coin}))

	resID, leased, err := s.LeaseCoins(ctx, 50, 1*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, s.MarkReadyForExecution(ctx, resID))

	time.Sleep(50 * time.Millisecond)

	expired, err := s.ExpireCoins(ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)

	// A second MarkReadyForExecution call is rejected.
	err = s.MarkReadyForExecution(ctx, resID)
	assert.ErrorIs(t, err, errors.ErrAlreadyReady)

	// The pipeline is responsible for returning the coins itself.
	require.NoError(t, s.AddCoins(ctx, leased))
	n, err := s.AvailableCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestLeaseCoinsAtMostOnceUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	const numCoins = 200
	coins := make([]types.Coin, numCoins)
	for i := 0; i < numCoins; i++ {
		coins[i] = mustCoin(t, byte(i%256), 1)
	}
	// Use the high byte to disambiguate ids beyond 256 coins if needed.
	for i := range coins {
		coins[i].ObjectID[30] = byte(i / 256)
	}
	require.NoError(t, s.AddCoins(ctx, coins))

	seen := make(map[types.ObjectID]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < numCoins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, leased, err := s.LeaseCoins(ctx, 1, time.Minute)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, c := range leased {
				require.False(t, seen[c.ObjectID], "coin leased twice: %v", c.ObjectID)
				seen[c.ObjectID] = true
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, numCoins)
}
