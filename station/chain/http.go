package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	staterrors "github.com/gaslabs/station/station/errors"
	"github.com/gaslabs/station/station/retry"
	"github.com/gaslabs/station/station/types"
)

const maxSubmitAttempts = 3

// HTTPClient is a JSON-RPC Client over HTTP, optionally with HTTP Basic
// credentials, following the same request/response shape as go-ethereum's
// ethclient package but over a generic JSON-RPC envelope instead of an
// Ethereum-specific codec.
type HTTPClient struct {
	httpClient *http.Client
	url        string
	basicAuth  *basicAuth
}

type basicAuth struct {
	username, password string
}

// NewHTTPClient builds a Client pointed at a fullnode JSON-RPC endpoint.
// basicUser/basicPass may be empty to skip HTTP Basic auth.
func NewHTTPClient(url, basicUser, basicPass string) *HTTPClient {
	c := &HTTPClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
	}
	if basicUser != "" {
		c.basicAuth = &basicAuth{username: basicUser, password: basicPass}
	}
	return c
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return fmt.Errorf("encoding rpc request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.basicAuth != nil {
		req.SetBasicAuth(c.basicAuth.username, c.basicAuth.password)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", staterrors.ErrStorageTransient, err)
	}
	defer resp.Body.Close()
	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decoding rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

func (c *HTTPClient) SubmitTx(ctx context.Context, signedTxBytes []byte, requestType RequestType) (types.Effects, error) {
	var effects types.Effects
	err := retry.WithMaxAttempts(ctx, maxSubmitAttempts, func() error {
		return c.call(ctx, "executeTransaction", []interface{}{
			base64.StdEncoding.EncodeToString(signedTxBytes),
			requestType.String(),
		}, &effects)
	})
	if err != nil {
		log.Error("transaction submission failed after retries", "err", err)
		return types.Effects{}, fmt.Errorf("%w: %v", staterrors.ErrSubmissionFailed, err)
	}
	return effects, nil
}

func (c *HTTPClient) FetchCoins(ctx context.Context, ids []types.ObjectID) (map[types.ObjectID]types.Coin, error) {
	if len(ids) == 0 {
		return map[types.ObjectID]types.Coin{}, nil
	}
	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}
	var raw []*types.Coin
	err := retry.WithMaxAttempts(ctx, maxSubmitAttempts, func() error {
		return c.call(ctx, "multiGetObjects", []interface{}{idStrs}, &raw)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", staterrors.ErrStorageTransient, err)
	}
	out := make(map[types.ObjectID]types.Coin, len(raw))
	for i, c := range raw {
		if c == nil {
			// Missing entry: the object was consumed on chain.
			continue
		}
		out[ids[i]] = *c
	}
	return out, nil
}

func (c *HTTPClient) WaitForObject(ctx context.Context, id types.ObjectID) error {
	return retry.WithMaxAttempts(ctx, maxSubmitAttempts, func() error {
		var obj *types.Coin
		if err := c.call(ctx, "getObject", []interface{}{id.String()}, &obj); err != nil {
			return err
		}
		if obj == nil {
			return fmt.Errorf("object %s not yet indexed", id)
		}
		return nil
	})
}
