// Package pool defines the coin-pool store contract: leasing, returning,
// and expiring sponsor-owned gas coins under concurrent access, with
// deterministic selection order and at-most-once lease semantics.
package pool

import (
	"context"
	"time"

	"github.com/gaslabs/station/station/types"
)

// Store is the coin pool's storage contract. Implementations must be
// linearizable with respect to one another: no coin may be returned by two
// concurrent successful LeaseCoins calls, and reservations in
// ReadyForExecution must never be touched by ExpireCoins.
type Store interface {
	// LeaseCoins atomically takes available coins in order, oldest
	// insertion first then ascending ObjectID, until their summed balance
	// is at least targetBudget (it does not search for the smallest such
	// set), removes them from the pool, and records a
	// new reservation in state Leased with deadline now+ttl. Returns
	// errors.ErrInsufficientCapacity if no such subset exists.
	LeaseCoins(ctx context.Context, targetBudget uint64, ttl time.Duration) (types.ReservationID, []types.Coin, error)

	// MarkReadyForExecution transitions a reservation from Leased to
	// ReadyForExecution. After this call the expiry loop will never
	// reclaim its coins; the caller becomes responsible for returning
	// them via AddCoins. Returns errors.ErrUnknownReservation or
	// errors.ErrAlreadyReady.
	MarkReadyForExecution(ctx context.Context, id types.ReservationID) error

	// AddCoins inserts coins into the available pool, keyed by
	// ObjectID. A coin whose id already exists in the pool is replaced
	// (later version wins).
	AddCoins(ctx context.Context, coins []types.Coin) error

	// ExpireCoins atomically removes every Leased reservation whose
	// deadline has elapsed and returns the union of their coin ids.
	// Reservations in ReadyForExecution are left untouched.
	ExpireCoins(ctx context.Context) ([]types.ObjectID, error)

	// AvailableCount reports the number of coins currently available in
	// the pool, for observability only.
	AvailableCount(ctx context.Context) (uint64, error)
}
