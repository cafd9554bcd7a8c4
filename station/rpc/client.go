package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client is the Go counterpart of GasStationRpcClient: a thin HTTP client
// for the public RPC surface, authenticating with a bearer token.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	bearerToken string
}

// NewClient builds a Client. bearerToken is normally read by the caller
// from an environment variable, not hardcoded.
func NewClient(baseURL, bearerToken string) *Client {
	return &Client{
		httpClient:  &http.Client{},
		baseURL:     baseURL,
		bearerToken: bearerToken,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

// CheckHealth calls GET /.
func (c *Client) CheckHealth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/", nil, nil)
}

// Version calls GET /version.
func (c *Client) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DebugHealthCheck calls POST /debug_health_check.
func (c *Client) DebugHealthCheck(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/debug_health_check", nil, nil)
}

// ReserveGas calls POST /v1/reserve_gas.
func (c *Client) ReserveGas(ctx context.Context, gasBudget, reserveDurationSecs uint64) (*ReserveGasResult, error) {
	var resp ReserveGasResponse
	if err := c.do(ctx, http.MethodPost, "/v1/reserve_gas", ReserveGasRequest{
		GasBudget:           gasBudget,
		ReserveDurationSecs: reserveDurationSecs,
	}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("reserve_gas: %s", resp.Error)
	}
	return resp.Result, nil
}

// ExecuteTx calls POST /v1/execute_tx.
func (c *Client) ExecuteTx(ctx context.Context, req ExecuteTxRequest) (*EffectsView, error) {
	var resp ExecuteTxResponse
	if err := c.do(ctx, http.MethodPost, "/v1/execute_tx", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("execute_tx: %s", resp.Error)
	}
	return resp.Effects, nil
}

// ReloadAccessController calls GET /v1/reload_access_controller.
func (c *Client) ReloadAccessController(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/reload_access_controller", nil, nil)
}
