package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaslabs/station/station/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRPCServer(t *testing.T, handle func(method string, params json.RawMessage) (interface{}, *rpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		paramsRaw, err := json.Marshal(req.Params)
		require.NoError(t, err)

		result, rpcErr := handle(req.Method, paramsRaw)
		resp := struct {
			Result interface{} `json:"result,omitempty"`
			Error  *rpcError   `json:"error,omitempty"`
		}{Result: result, Error: rpcErr}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestSubmitTxSuccess(t *testing.T) {
	srv := jsonRPCServer(t, func(method string, params json.RawMessage) (interface{}, *rpcError) {
		assert.Equal(t, "executeTransaction", method)
		return types.Effects{Status: "success"}, nil
	})
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "")
	effects, err := c.SubmitTx(context.Background(), []byte("tx"), WaitForEffects)
	require.NoError(t, err)
	assert.Equal(t, "success", effects.Status)
}

func TestSubmitTxSurfacesSubmissionFailure(t *testing.T) {
	srv := jsonRPCServer(t, func(method string, params json.RawMessage) (interface{}, *rpcError) {
		return nil, &rpcError{Code: 500, Message: "boom"}
	})
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "")
	_, err := c.SubmitTx(context.Background(), []byte("tx"), WaitForEffects)
	require.Error(t, err)
}

func TestFetchCoinsDropsMissingEntries(t *testing.T) {
	var coin types.Coin
	coin.ObjectID[0] = 1
	coin.Balance = 100

	srv := jsonRPCServer(t, func(method string, params json.RawMessage) (interface{}, *rpcError) {
		assert.Equal(t, "multiGetObjects", method)
		return []*types.Coin{&coin, nil}, nil
	})
	defer srv.Close()

	var missing types.ObjectID
	missing[0] = 2
	c := NewHTTPClient(srv.URL, "", "")
	out, err := c.FetchCoins(context.Background(), []types.ObjectID{coin.ObjectID, missing})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	_, ok := out[coin.ObjectID]
	assert.True(t, ok)
}

func TestHTTPClientUsesBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	var gotOK bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotOK = r.BasicAuth()
		json.NewEncoder(w).Encode(struct {
			Result interface{} `json:"result"`
		}{Result: types.Effects{Status: "success"}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "alice", "secret")
	_, err := c.SubmitTx(context.Background(), []byte("tx"), WaitForEffects)
	require.NoError(t, err)
	assert.True(t, gotOK)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "secret", gotPass)
}
