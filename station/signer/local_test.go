package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSignerSignVerifies(t *testing.T) {
	sg, err := GenerateLocalSigner()
	require.NoError(t, err)

	txBytes := []byte("some transaction bytes")
	sig, err := sg.Sign(context.Background(), txBytes)
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	digest := sha256.Sum256(txBytes)
	half := len(sig) / 2
	r := new(big.Int).SetBytes(sig[:half])
	s := new(big.Int).SetBytes(sig[half:])
	assert.True(t, ecdsa.Verify(&sg.key.PublicKey, digest[:], r, s))
}

func TestLocalSignerIsValidAddress(t *testing.T) {
	sg, err := GenerateLocalSigner()
	require.NoError(t, err)

	assert.True(t, sg.IsValidAddress(sg.Address()))

	other, err := GenerateLocalSigner()
	require.NoError(t, err)
	assert.False(t, sg.IsValidAddress(other.Address()))
}
