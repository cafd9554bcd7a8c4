package pool

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	staterrors "github.com/gaslabs/station/station/errors"
	"github.com/gaslabs/station/station/types"
)

// coinEntry is a coin sitting in the available pool, in insertion order.
type coinEntry struct {
	coin types.Coin
}

// reservationEntry tracks a single lease's coins, deadline and state.
type reservationEntry struct {
	id        types.ReservationID
	coinIDs   []types.ObjectID
	expiresAt time.Time
	state     types.ReservationState
}

// MemoryStore is an in-process Store backed by a mutex-protected queue: a
// map for O(1) lookup plus a slice that preserves insertion order.
type MemoryStore struct {
	mu sync.Mutex

	// available holds coins not currently leased, oldest insertion
	// first.
	available []coinEntry
	// index maps an ObjectID to its position in available; a coin that
	// is currently leased has no entry.
	index map[types.ObjectID]int

	reservations map[types.ReservationID]*reservationEntry
	nextID       atomic.Uint64
}

// NewMemoryStore returns an empty in-memory coin pool.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		available:    make([]coinEntry, 0),
		index:        make(map[types.ObjectID]int),
		reservations: make(map[types.ReservationID]*reservationEntry),
	}
}

func (s *MemoryStore) LeaseCoins(ctx context.Context, targetBudget uint64, ttl time.Duration) (types.ReservationID, []types.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		sum      uint64
		selected []int
	)
	for i, e := range s.available {
		if sum >= targetBudget {
			break
		}
		selected = append(selected, i)
		sum += e.coin.Balance
	}
	if sum < targetBudget || len(selected) == 0 {
		return 0, nil, staterrors.ErrInsufficientCapacity
	}

	coins := make([]types.Coin, 0, len(selected))
	for _, i := range selected {
		coins = append(coins, s.available[i].coin)
	}

	s.removeFromAvailable(selected)

	id := types.ReservationID(s.nextID.Add(1))
	ids := make([]types.ObjectID, len(coins))
	for i, c := range coins {
		ids[i] = c.ObjectID
	}
	s.reservations[id] = &reservationEntry{
		id:        id,
		coinIDs:   ids,
		expiresAt: time.Now().Add(ttl),
		state:     types.Leased,
	}
	log.Debug("leased gas coins", "reservation", id, "coins", len(coins), "budget", targetBudget, "sum", sum, "ttl", ttl)
	return id, coins, nil
}

// removeFromAvailable deletes the entries at the given (ascending, distinct)
// indices from s.available and rebuilds the index. Caller holds s.mu.
func (s *MemoryStore) removeFromAvailable(indices []int) {
	remove := make(map[int]bool, len(indices))
	for _, i := range indices {
		remove[i] = true
	}
	kept := s.available[:0:0]
	for i, e := range s.available {
		if remove[i] {
			delete(s.index, e.coin.ObjectID)
			continue
		}
		kept = append(kept, e)
	}
	s.available = kept
	for i, e := range s.available {
		s.index[e.coin.ObjectID] = i
	}
}

func (s *MemoryStore) MarkReadyForExecution(ctx context.Context, id types.ReservationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok {
		return staterrors.ErrUnknownReservation
	}
	if r.state == types.ReadyForExecution {
		return staterrors.ErrAlreadyReady
	}
	r.state = types.ReadyForExecution
	log.Debug("reservation ready for execution", "reservation", id)
	return nil
}

func (s *MemoryStore) AddCoins(ctx context.Context, coins []types.Coin) error {
	if len(coins) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Coins added in the same call are ordered deterministically by
	// ObjectID before appending, so selection order is stable even when
	// several coins land in the pool at the same instant (e.g. an
	// expiry sweep releasing many leases at once).
	ordered := make([]types.Coin, len(coins))
	copy(ordered, coins)
	sort.Slice(ordered, func(i, j int) bool {
		return string(ordered[i].ObjectID[:]) < string(ordered[j].ObjectID[:])
	})

	for _, c := range ordered {
		if i, exists := s.index[c.ObjectID]; exists {
			// Later version wins: drop the stale entry, then fall
			// through to append the fresh one at the back.
			s.available = append(s.available[:i], s.available[i+1:]...)
			for j := i; j < len(s.available); j++ {
				s.index[s.available[j].coin.ObjectID] = j
			}
			delete(s.index, c.ObjectID)
		}
		s.index[c.ObjectID] = len(s.available)
		s.available = append(s.available, coinEntry{coin: c})
	}
	log.Debug("added coins to pool", "count", len(coins))
	return nil
}

func (s *MemoryStore) ExpireCoins(ctx context.Context) ([]types.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var expired []types.ObjectID
	for id, r := range s.reservations {
		if r.state != types.Leased {
			continue
		}
		if now.Before(r.expiresAt) {
			continue
		}
		expired = append(expired, r.coinIDs...)
		delete(s.reservations, id)
	}
	if len(expired) > 0 {
		log.Debug("expired reservations released coins", "coins", len(expired))
	}
	return expired, nil
}

func (s *MemoryStore) AvailableCount(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.available)), nil
}
