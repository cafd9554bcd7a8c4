// Package chain implements the chain client contract: submitting signed
// transactions and reading back on-chain coin state, over HTTP-JSON RPC
// to a ledger node.
package chain

import (
	"context"

	"github.com/gaslabs/station/station/types"
)

// RequestType selects what form of confirmation SubmitTx waits for before
// returning.
type RequestType int

const (
	WaitForEffects RequestType = iota
	WaitForLocalExecution
)

func (r RequestType) String() string {
	if r == WaitForLocalExecution {
		return "WaitForLocalExecution"
	}
	return "WaitForEffects"
}

// Client is the gas station's view of the ledger: submit a signed
// transaction and read back coin state. Implementations must retry
// transient transport failures internally (up to 3 attempts, capped
// exponential backoff) before returning an error.
type Client interface {
	// SubmitTx submits a fully-signed transaction and awaits effects of
	// the requested confirmation type.
	SubmitTx(ctx context.Context, signedTxBytes []byte, requestType RequestType) (types.Effects, error)

	// FetchCoins returns the current on-chain state of each requested
	// id. An id absent from the returned map was consumed (smashed).
	FetchCoins(ctx context.Context, ids []types.ObjectID) (map[types.ObjectID]types.Coin, error)

	// WaitForObject blocks until the chain has indexed the given
	// object id at its latest version. Test hook only.
	WaitForObject(ctx context.Context, id types.ObjectID) error
}
