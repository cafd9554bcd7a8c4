package signer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gaslabs/station/station/types"
)

// SidecarSigner delegates signing to a remote HTTP service exposing
// sign(tx_bytes) -> signature, the alternative to LocalSigner described in
// the signer contract (§6).
type SidecarSigner struct {
	client  *http.Client
	baseURL string
	address types.SponsorAddress
}

type sidecarSignRequest struct {
	TxBytes string `json:"tx_bytes"`
}

type sidecarSignResponse struct {
	Signature string `json:"signature"`
	Error     string `json:"error,omitempty"`
}

type sidecarAddressResponse struct {
	Address string `json:"address"`
}

// NewSidecarSigner queries the sidecar for its sponsor address once at
// construction time, then reuses it for every IsValidAddress check.
func NewSidecarSigner(ctx context.Context, baseURL string) (*SidecarSigner, error) {
	s := &SidecarSigner{client: &http.Client{}, baseURL: baseURL}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/address", nil)
	if err != nil {
		return nil, fmt.Errorf("building sidecar address request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying sidecar signer address: %w", err)
	}
	defer resp.Body.Close()
	var out sidecarAddressResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding sidecar address response: %w", err)
	}
	if err := s.address.UnmarshalText([]byte(out.Address)); err != nil {
		return nil, fmt.Errorf("parsing sidecar sponsor address: %w", err)
	}
	log.Info("sidecar signer connected", "address", s.address, "url", baseURL)
	return s, nil
}

func (s *SidecarSigner) Address() types.SponsorAddress { return s.address }

func (s *SidecarSigner) IsValidAddress(a types.SponsorAddress) bool {
	return a == s.address
}

func (s *SidecarSigner) Sign(ctx context.Context, txBytes []byte) (Signature, error) {
	body, err := json.Marshal(sidecarSignRequest{TxBytes: base64.StdEncoding.EncodeToString(txBytes)})
	if err != nil {
		return nil, fmt.Errorf("encoding sidecar sign request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sign", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building sidecar sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling sidecar signer: %w", err)
	}
	defer resp.Body.Close()
	var out sidecarSignResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding sidecar sign response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("sidecar signer returned error: %s", out.Error)
	}
	sig, err := base64.StdEncoding.DecodeString(out.Signature)
	if err != nil {
		return nil, fmt.Errorf("decoding sidecar signature: %w", err)
	}
	return sig, nil
}
