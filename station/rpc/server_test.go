package rpc

import (
	"context"
	"encoding/base64"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gaslabs/station/station/access"
	"github.com/gaslabs/station/station/chain"
	"github.com/gaslabs/station/station/pool"
	"github.com/gaslabs/station/station/signer"
	"github.com/gaslabs/station/station/station"
	"github.com/gaslabs/station/station/types"
	"github.com/gaslabs/station/station/usagecap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopChain struct{}

func (noopChain) SubmitTx(ctx context.Context, signedTxBytes []byte, requestType chain.RequestType) (types.Effects, error) {
	return types.Effects{Status: "success"}, nil
}
func (noopChain) FetchCoins(ctx context.Context, ids []types.ObjectID) (map[types.ObjectID]types.Coin, error) {
	return nil, nil
}
func (noopChain) WaitForObject(ctx context.Context, id types.ObjectID) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sg, err := signer.GenerateLocalSigner()
	require.NoError(t, err)
	store := pool.NewMemoryStore()
	st := station.New(sg, store, noopChain{}, usagecap.New(1_000_000), nil)
	return NewServer(st, "test-token", nil)
}

// newFundedTestServer is like newTestServer but the pool starts with a
// single coin, for tests that exercise reserve_gas -> execute_tx
// end-to-end. sg is returned so the caller can read its address.
func newFundedTestServer(t *testing.T, accessController *access.Controller) (*Server, signer.Signer) {
	t.Helper()
	sg, err := signer.GenerateLocalSigner()
	require.NoError(t, err)
	store := pool.NewMemoryStore()
	require.NoError(t, store.AddCoins(context.Background(), []types.Coin{
		{ObjectRef: types.ObjectRef{ObjectID: types.ObjectID{1}}, Balance: 1000},
	}))
	st := station.New(sg, store, noopChain{}, usagecap.New(1_000_000), accessController)
	return NewServer(st, "test-token", nil), sg
}

func TestServerRootAndVersionNeedNoAuth(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := NewClient(ts.URL, "")
	require.NoError(t, c.CheckHealth(context.Background()))

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Version, v)
}

func TestServerRejectsWrongBearerToken(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := NewClient(ts.URL, "wrong-token")
	_, err := c.ReserveGas(context.Background(), 100, 60)
	require.Error(t, err)
}

func TestServerReserveGasSurfacesEmptyPool(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := NewClient(ts.URL, "test-token")
	_, err := c.ReserveGas(context.Background(), 1, uint64(time.Minute/time.Second))
	require.Error(t, err, "pool is empty, must surface InsufficientCapacity")
}

func TestServerExecuteTxRoundTrip(t *testing.T) {
	srv, sg := newFundedTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := NewClient(ts.URL, "test-token")
	ctx := context.Background()

	reserved, err := c.ReserveGas(ctx, 100, uint64(time.Minute/time.Second))
	require.NoError(t, err)
	require.Len(t, reserved.GasCoins, 1)

	effects, err := c.ExecuteTx(ctx, ExecuteTxRequest{
		ReservationID: reserved.ReservationID,
		TxBytes:       base64.StdEncoding.EncodeToString([]byte("unsigned-tx-bytes")),
		UserSig:       base64.StdEncoding.EncodeToString([]byte("user-sig")),
		Sponsor:       sg.Address().String(),
		GasBudget:     100,
		Payment:       reserved.GasCoins,
	})
	require.NoError(t, err)
	assert.Equal(t, "success", effects.Status)
}

func TestServerExecuteTxRejectsMalformedSponsor(t *testing.T) {
	srv, _ := newFundedTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := NewClient(ts.URL, "test-token")
	ctx := context.Background()

	reserved, err := c.ReserveGas(ctx, 100, uint64(time.Minute/time.Second))
	require.NoError(t, err)

	_, err = c.ExecuteTx(ctx, ExecuteTxRequest{
		ReservationID: reserved.ReservationID,
		TxBytes:       base64.StdEncoding.EncodeToString([]byte("unsigned-tx-bytes")),
		UserSig:       base64.StdEncoding.EncodeToString([]byte("user-sig")),
		Sponsor:       "not-a-hex-address",
		GasBudget:     100,
		Payment:       reserved.GasCoins,
	})
	require.Error(t, err)
}

func TestServerExecuteTxDeniedByAccessController(t *testing.T) {
	denyAll := access.NewController(nil, access.Deny)
	srv, sg := newFundedTestServer(t, denyAll)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := NewClient(ts.URL, "test-token")
	ctx := context.Background()

	reserved, err := c.ReserveGas(ctx, 100, uint64(time.Minute/time.Second))
	require.NoError(t, err)

	_, err = c.ExecuteTx(ctx, ExecuteTxRequest{
		ReservationID: reserved.ReservationID,
		TxBytes:       base64.StdEncoding.EncodeToString([]byte("unsigned-tx-bytes")),
		UserSig:       base64.StdEncoding.EncodeToString([]byte("user-sig")),
		Sponsor:       sg.Address().String(),
		GasBudget:     100,
		Payment:       reserved.GasCoins,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}
