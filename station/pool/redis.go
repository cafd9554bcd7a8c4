package pool

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"
	staterrors "github.com/gaslabs/station/station/errors"
	"github.com/gaslabs/station/station/types"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the reference Store backend from the storage contract: a
// remote key-value server addressed by URL, with atomic selection and
// expiry implemented as Lua scripts so the compare-and-swap semantics hold
// across a round trip to the server.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore wraps an existing redis client. prefix namespaces all keys
// this store touches, so a single redis instance can host multiple pools.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// leaseScript takes coins from the available ZSET in order (insertion
// sequence, then member name ascending, which ZRANGE already guarantees
// for equal scores) until their summed balance meets the target,
// removes them, and records a new reservation hash plus its entry in the
// leased-by-deadline ZSET.
var leaseScript = redis.NewScript(`
local available = KEYS[1]
local coinPrefix = KEYS[2]
local reservationPrefix = KEYS[3]
local leasedZset = KEYS[4]
local seqKey = KEYS[5]
local resIDKey = KEYS[6]

local target = tonumber(ARGV[1])
local expiresAt = tonumber(ARGV[2])

local members = redis.call('ZRANGE', available, 0, -1)
local sum = 0
local chosen = {}
for _, id in ipairs(members) do
  if sum >= target then break end
  local bal = tonumber(redis.call('HGET', coinPrefix .. ':' .. id, 'balance'))
  sum = sum + bal
  table.insert(chosen, id)
end
if sum < target or #chosen == 0 then
  return nil
end

local resID = redis.call('INCR', resIDKey)
local coinsOut = {}
for _, id in ipairs(chosen) do
  redis.call('ZREM', available, id)
  local h = redis.call('HGETALL', coinPrefix .. ':' .. id)
  for _, v in ipairs(h) do table.insert(coinsOut, v) end
  table.insert(coinsOut, '__next__')
end

redis.call('HSET', reservationPrefix .. ':' .. resID, 'state', 'leased', 'expiresAt', expiresAt, 'coins', table.concat(chosen, ','))
redis.call('ZADD', leasedZset, expiresAt, tostring(resID))

return {tostring(resID), coinsOut}
`)

// expireScript finds every reservation in the leased ZSET whose score
// (expiry deadline) has elapsed, deletes it, and returns the union of its
// coin ids. Reservations marked ready-for-execution were already removed
// from the leased ZSET by MarkReadyForExecution, so they are never visited
// here.
var expireScript = redis.NewScript(`
local leasedZset = KEYS[1]
local reservationPrefix = KEYS[2]
local now = tonumber(ARGV[1])

local expiredRes = redis.call('ZRANGEBYSCORE', leasedZset, '-inf', now)
local coinIDs = {}
for _, resID in ipairs(expiredRes) do
  local coins = redis.call('HGET', reservationPrefix .. ':' .. resID, 'coins')
  if coins and coins ~= '' then
    for id in string.gmatch(coins, '([^,]+)') do
      table.insert(coinIDs, id)
    end
  end
  redis.call('DEL', reservationPrefix .. ':' .. resID)
  redis.call('ZREM', leasedZset, resID)
end
return coinIDs
`)

func (s *RedisStore) LeaseCoins(ctx context.Context, targetBudget uint64, ttl time.Duration) (types.ReservationID, []types.Coin, error) {
	expiresAt := time.Now().Add(ttl).UnixMilli()
	res, err := leaseScript.Run(ctx, s.rdb, []string{
		s.key("available"),
		s.key("coin"),
		s.key("reservation"),
		s.key("leased"),
		s.key("seq"),
		s.key("resid"),
	}, targetBudget, expiresAt).Result()
	if err == redis.Nil {
		return 0, nil, staterrors.ErrInsufficientCapacity
	}
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", staterrors.ErrStorageTransient, err)
	}
	rows, ok := res.([]interface{})
	if !ok || len(rows) != 2 {
		return 0, nil, fmt.Errorf("%w: unexpected lease script result shape", staterrors.ErrStorageTransient)
	}
	idStr, _ := rows[0].(string)
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: parsing reservation id: %v", staterrors.ErrStorageTransient, err)
	}
	coins, err := decodeCoinFields(rows[1])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", staterrors.ErrStorageTransient, err)
	}
	log.Debug("leased gas coins from redis", "reservation", id, "coins", len(coins))
	return types.ReservationID(id), coins, nil
}

// decodeCoinFields parses the flattened HGETALL field/value pairs the Lua
// script returns, one coin's fields terminated by the "__next__" sentinel.
func decodeCoinFields(raw interface{}) ([]types.Coin, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected coin payload shape")
	}
	var (
		coins  []types.Coin
		fields = map[string]string{}
	)
	flush := func() error {
		if len(fields) == 0 {
			return nil
		}
		c, err := coinFromFields(fields)
		if err != nil {
			return err
		}
		coins = append(coins, c)
		fields = map[string]string{}
		return nil
	}
	var key string
	haveKey := false
	for _, it := range items {
		v, _ := it.(string)
		if v == "__next__" {
			if err := flush(); err != nil {
				return nil, err
			}
			haveKey = false
			continue
		}
		if !haveKey {
			key = v
			haveKey = true
			continue
		}
		fields[key] = v
		haveKey = false
	}
	return coins, nil
}

func coinFromFields(f map[string]string) (types.Coin, error) {
	var c types.Coin
	if err := c.ObjectID.UnmarshalText([]byte(f["id"])); err != nil {
		return c, err
	}
	if err := c.Digest.UnmarshalText([]byte(f["digest"])); err != nil {
		return c, err
	}
	version, err := strconv.ParseUint(f["version"], 10, 64)
	if err != nil {
		return c, err
	}
	balance, err := strconv.ParseUint(f["balance"], 10, 64)
	if err != nil {
		return c, err
	}
	c.Version = version
	c.Balance = balance
	return c, nil
}

func (s *RedisStore) MarkReadyForExecution(ctx context.Context, id types.ReservationID) error {
	key := s.key("reservation", strconv.FormatUint(uint64(id), 10))
	state, err := s.rdb.HGet(ctx, key, "state").Result()
	if err == redis.Nil {
		return staterrors.ErrUnknownReservation
	}
	if err != nil {
		return fmt.Errorf("%w: %v", staterrors.ErrStorageTransient, err)
	}
	if state == "ready" {
		return staterrors.ErrAlreadyReady
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, "state", "ready")
	pipe.ZRem(ctx, s.key("leased"), strconv.FormatUint(uint64(id), 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", staterrors.ErrStorageTransient, err)
	}
	return nil
}

func (s *RedisStore) AddCoins(ctx context.Context, coins []types.Coin) error {
	if len(coins) == 0 {
		return nil
	}
	// Reserve a contiguous block of insertion-sequence numbers up front
	// so every coin in this call gets a strictly increasing score
	// without a round trip per coin inside the transaction below.
	last, err := s.rdb.IncrBy(ctx, s.key("seq"), int64(len(coins))).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", staterrors.ErrStorageTransient, err)
	}
	firstSeq := last - int64(len(coins)) + 1

	pipe := s.rdb.TxPipeline()
	for i, c := range coins {
		idHex := c.ObjectID.String()
		coinKey := s.key("coin", idHex)
		digestHex, _ := c.Digest.MarshalText()
		pipe.HSet(ctx, coinKey, map[string]interface{}{
			"id":      idHex,
			"version": c.Version,
			"digest":  string(digestHex),
			"balance": c.Balance,
		})
		pipe.ZAdd(ctx, s.key("available"), redis.Z{Score: float64(firstSeq + int64(i)), Member: idHex})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", staterrors.ErrStorageTransient, err)
	}
	return nil
}

func (s *RedisStore) ExpireCoins(ctx context.Context) ([]types.ObjectID, error) {
	now := time.Now().UnixMilli()
	res, err := expireScript.Run(ctx, s.rdb, []string{s.key("leased"), s.key("reservation")}, now).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", staterrors.ErrStorageTransient, err)
	}
	items, _ := res.([]interface{})
	ids := make([]types.ObjectID, 0, len(items))
	for _, it := range items {
		s, _ := it.(string)
		var id types.ObjectID
		if err := id.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("%w: parsing expired coin id: %v", staterrors.ErrStorageTransient, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *RedisStore) AvailableCount(ctx context.Context) (uint64, error) {
	n, err := s.rdb.ZCard(ctx, s.key("available")).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", staterrors.ErrStorageTransient, err)
	}
	return uint64(n), nil
}
