package signer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaslabs/station/station/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidecarSignerRoundTrip(t *testing.T) {
	var sponsor types.SponsorAddress
	sponsor[0] = 9

	mux := http.NewServeMux()
	mux.HandleFunc("/address", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sidecarAddressResponse{Address: sponsor.String()})
	})
	mux.HandleFunc("/sign", func(w http.ResponseWriter, r *http.Request) {
		var req sidecarSignRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		txBytes, err := base64.StdEncoding.DecodeString(req.TxBytes)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(txBytes))
		json.NewEncoder(w).Encode(sidecarSignResponse{
			Signature: base64.StdEncoding.EncodeToString([]byte("sig-bytes")),
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sg, err := NewSidecarSigner(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, sponsor, sg.Address())
	assert.True(t, sg.IsValidAddress(sponsor))

	sig, err := sg.Sign(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, Signature("sig-bytes"), sig)
}

func TestSidecarSignerSurfacesRemoteError(t *testing.T) {
	var sponsor types.SponsorAddress
	mux := http.NewServeMux()
	mux.HandleFunc("/address", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sidecarAddressResponse{Address: sponsor.String()})
	})
	mux.HandleFunc("/sign", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sidecarSignResponse{Error: "key unavailable"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sg, err := NewSidecarSigner(context.Background(), srv.URL)
	require.NoError(t, err)

	_, err = sg.Sign(context.Background(), []byte("payload"))
	require.Error(t, err)
}
