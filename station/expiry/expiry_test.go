package expiry

import (
	"context"
	"testing"
	"time"

	"github.com/gaslabs/station/station/chain"
	"github.com/gaslabs/station/station/pool"
	"github.com/gaslabs/station/station/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	coins map[types.ObjectID]types.Coin
}

func (f *fakeChain) SubmitTx(ctx context.Context, signedTxBytes []byte, requestType chain.RequestType) (types.Effects, error) {
	return types.Effects{}, nil
}

func (f *fakeChain) FetchCoins(ctx context.Context, ids []types.ObjectID) (map[types.ObjectID]types.Coin, error) {
	out := make(map[types.ObjectID]types.Coin)
	for _, id := range ids {
		if c, ok := f.coins[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (f *fakeChain) WaitForObject(ctx context.Context, id types.ObjectID) error { return nil }

func TestLoopReleasesExpiredCoins(t *testing.T) {
	ctx := context.Background()
	store := pool.NewMemoryStore()

	var coin types.Coin
	coin.ObjectID[0] = 1
	coin.Balance = 500
	require.NoError(t, store.AddCoins(ctx, []types.Coin{coin}))

	_, leased, err := store.LeaseCoins(ctx, 100, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, leased, 1)

	ch := &fakeChain{coins: map[types.ObjectID]types.Coin{coin.ObjectID: coin}}
	loop := Start(store, ch)
	defer loop.Close()

	require.Eventually(t, func() bool {
		n, err := store.AvailableCount(ctx)
		return err == nil && n == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestLoopCloseIsIdempotent(t *testing.T) {
	store := pool.NewMemoryStore()
	loop := Start(store, &fakeChain{coins: map[types.ObjectID]types.Coin{}})
	loop.Close()
	assert.NotPanics(t, func() { loop.Close() })
}
