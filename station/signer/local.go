package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/gaslabs/station/station/types"
)

// LocalSigner holds the sponsor keypair in-process, signing directly
// against the stdlib ecdsa API rather than shelling out to an external
// service. Signatures are the fixed-width 64-byte r||s encoding.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address types.SponsorAddress
}

// NewLocalSigner derives a sponsor address from the keypair's public point
// and returns a Signer that signs in-process.
func NewLocalSigner(key *ecdsa.PrivateKey) *LocalSigner {
	return &LocalSigner{key: key, address: addressFromKey(key)}
}

// GenerateLocalSigner creates a fresh P-256 keypair, for tests and
// development setups that don't have a persisted sponsor key.
func GenerateLocalSigner() (*LocalSigner, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating sponsor keypair: %w", err)
	}
	return NewLocalSigner(key), nil
}

func addressFromKey(key *ecdsa.PrivateKey) types.SponsorAddress {
	digest := sha256.Sum256(append(key.PublicKey.X.Bytes(), key.PublicKey.Y.Bytes()...))
	var addr types.SponsorAddress
	copy(addr[:], digest[:])
	return addr
}

func (s *LocalSigner) Address() types.SponsorAddress { return s.address }

func (s *LocalSigner) IsValidAddress(a types.SponsorAddress) bool {
	return a == s.address
}

func (s *LocalSigner) Sign(ctx context.Context, txBytes []byte) (Signature, error) {
	digest := sha256.Sum256(txBytes)
	r, sVal, err := ecdsa.Sign(rand.Reader, s.key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	sVal.FillBytes(sig[32:])
	return sig, nil
}
