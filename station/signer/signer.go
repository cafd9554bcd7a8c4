// Package signer implements the sponsor signer contract: producing the
// sponsor's signature over transaction bytes, either with an in-process
// keypair or a remote sidecar service.
package signer

import (
	"context"

	"github.com/gaslabs/station/station/types"
)

// Signature is a sponsor signature over a transaction's signing bytes.
type Signature []byte

// Signer produces sponsor signatures. Implementations may be remote; Sign
// is retried by callers up to 3 times on transport error.
type Signer interface {
	// Address returns the sponsor address this signer signs for.
	Address() types.SponsorAddress

	// IsValidAddress reports whether a is the address this signer
	// represents, i.e. whether this station recognizes it as sponsor.
	IsValidAddress(a types.SponsorAddress) bool

	// Sign returns the sponsor's signature over txBytes.
	Sign(ctx context.Context, txBytes []byte) (Signature, error)
}
