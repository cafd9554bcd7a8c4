// Package types defines the wire- and storage-level data model shared by the
// gas station's components: coins, reservations, and the ledger-facing
// identifiers and effects they reference.
package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ObjectID identifies a coin object on chain. It is stable across the
// coin's life; Version and Digest change on every chain write.
type ObjectID [32]byte

func (id ObjectID) String() string {
	return hexutil.Encode(id[:])
}

func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ObjectID) UnmarshalText(data []byte) error {
	b, err := hexutil.Decode(string(data))
	if err != nil {
		return fmt.Errorf("parsing object id %q: %w", data, err)
	}
	if len(b) != len(id) {
		return fmt.Errorf("object id %q has wrong length %d, want %d", data, len(b), len(id))
	}
	copy(id[:], b)
	return nil
}

// Digest is the content hash of a coin object at a given version.
type Digest [32]byte

func (d Digest) String() string {
	return hexutil.Encode(d[:])
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(data []byte) error {
	b, err := hexutil.Decode(string(data))
	if err != nil {
		return fmt.Errorf("parsing digest %q: %w", data, err)
	}
	if len(b) != len(d) {
		return fmt.Errorf("digest %q has wrong length %d, want %d", data, len(b), len(d))
	}
	copy(d[:], b)
	return nil
}

// SponsorAddress identifies the account whose coins are spent sponsoring a
// transaction.
type SponsorAddress [32]byte

func (a SponsorAddress) String() string {
	return hexutil.Encode(a[:])
}

func (a SponsorAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *SponsorAddress) UnmarshalText(data []byte) error {
	b, err := hexutil.Decode(string(data))
	if err != nil {
		return fmt.Errorf("parsing sponsor address %q: %w", data, err)
	}
	if len(b) != len(a) {
		return fmt.Errorf("sponsor address %q has wrong length %d, want %d", data, len(b), len(a))
	}
	copy(a[:], b)
	return nil
}

// ObjectRef is a coin's identity tuple as referenced by a transaction's
// payment list.
type ObjectRef struct {
	ObjectID ObjectID `json:"objectId"`
	Version  uint64   `json:"version"`
	Digest   Digest   `json:"digest"`
}

// Coin is a gas coin as tracked by the pool: an object reference plus its
// spendable balance, in the chain's smallest on-chain unit.
type Coin struct {
	ObjectRef
	Balance uint64 `json:"balance"`
}

func (c Coin) String() string {
	return fmt.Sprintf("Coin{%s v%d bal=%d}", c.ObjectID, c.Version, c.Balance)
}

// ReservationID is a monotonically assigned, opaque identifier for a lease
// of one or more pool coins. It is unique for the lifetime of the store.
type ReservationID uint64

func (r ReservationID) String() string {
	return fmt.Sprintf("reservation-%d", uint64(r))
}

// ReservationState is the lifecycle state of a Reservation.
type ReservationState int

const (
	// Leased is the initial state: the reservation is subject to
	// expiry by the background expiry loop.
	Leased ReservationState = iota
	// ReadyForExecution means the execution pipeline has taken
	// ownership of the coins; the expiry loop must never touch it again.
	ReadyForExecution
)

func (s ReservationState) String() string {
	switch s {
	case Leased:
		return "leased"
	case ReadyForExecution:
		return "ready-for-execution"
	default:
		return "unknown"
	}
}

// GasCostSummary is the subset of on-chain transaction effects the
// execution pipeline needs to reconcile coin balances.
type GasCostSummary struct {
	// ComputationCost, StorageCost, StorageRebate make up net usage;
	// exposed individually for metrics/observability, the pipeline only
	// consumes NetGasUsage().
	ComputationCost int64 `json:"computationCost"`
	StorageCost     int64 `json:"storageCost"`
	StorageRebate   int64 `json:"storageRebate"`
}

// NetGasUsage is gas_charged - storage_rebate; may be negative on refund
// paths.
func (g GasCostSummary) NetGasUsage() int64 {
	return g.ComputationCost + g.StorageCost - g.StorageRebate
}

// Effects is the ledger's structured report of a transaction's result.
type Effects struct {
	Status         string         `json:"status"`
	GasCostSummary GasCostSummary `json:"gasCostSummary"`
	// GasObject is the single surviving gas coin reference after
	// execution. Other payment coins were smashed into it.
	GasObject ObjectRef `json:"gasObject"`
	Digest    Digest    `json:"digest"`
}
