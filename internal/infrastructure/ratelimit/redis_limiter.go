// Package ratelimit implements the ledger's early-reject spend-ceiling
// cache. It generalizes the token-bucket-per-key idea a gin rate-limit
// middleware would apply to a path into a Redis-backed sliding window of
// recent debits per API key, so the reject view is consistent across
// replicas instead of living in one process's memory.
//
// It is never the authoritative check: ledger.Authorizer.CheckSpendCeiling,
// run under the payer account's lock against the store, always has the
// final word. A Redis outage or an unknown key just means LikelyExceeds
// falls through to false, letting the authoritative check decide.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// RedisLimiter implements ledger.SpendLimiter against a Redis sorted set
// per API key: each committed debit is a member scored by its timestamp, so
// a sliding window sum is a ZRANGEBYSCORE away.
//
// Ceilings are supplied at construction, not looked up per call: the map is
// built once at startup from the configured API key seeds, whereas the
// authoritative check reads each key's ceiling from the store per operation.
type RedisLimiter struct {
	client   *redis.Client
	ceilings map[ids.APIKeyID]valueobjects.Money
}

// NewRedisLimiter builds a limiter. ceilings maps API key id to its
// configured rolling spend ceiling; a key absent from the map is treated as
// uncapped by the fast path (the authoritative check still applies whatever
// ceiling the store has on record for it).
func NewRedisLimiter(client *redis.Client, ceilings map[ids.APIKeyID]valueobjects.Money) *RedisLimiter {
	return &RedisLimiter{client: client, ceilings: ceilings}
}

func zsetKey(apiKeyID ids.APIKeyID) string {
	return fmt.Sprintf("wallethub:spend:%s", apiKeyID.String())
}

// LikelyExceeds sums the member amounts scored within [now-window, now] and
// reports whether adding amount would exceed the key's configured ceiling.
// Any Redis error or an unrecognized key returns (false, nil): a cache miss
// is not evidence the ceiling is exceeded.
func (l *RedisLimiter) LikelyExceeds(ctx context.Context, apiKeyID ids.APIKeyID, amount valueobjects.Money, window time.Duration) (bool, error) {
	ceiling, ok := l.ceilings[apiKeyID]
	if !ok {
		return false, nil
	}

	now := time.Now()
	key := zsetKey(apiKeyID)

	members, err := l.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(now.Add(-window).UnixNano(), 10),
		Max: strconv.FormatInt(now.UnixNano(), 10),
	}).Result()
	if err != nil {
		return false, nil
	}

	var sum int64
	for _, m := range members {
		sum += parseMemberAmount(m)
	}

	projected, err := valueobjects.NewMoney(sum, amount.Currency())
	if err != nil {
		return false, nil
	}
	projected, err = projected.Add(amount)
	if err != nil {
		return false, nil
	}
	exceeds, err := ceiling.LessThan(projected)
	if err != nil {
		return false, nil
	}
	return exceeds, nil
}

// RecordSpend adds a scored member for a committed debit and trims entries
// older than a generous retention window so the set doesn't grow without
// bound. No ledger operation calls it (see ledger.SpendLimiter).
func (l *RedisLimiter) RecordSpend(ctx context.Context, apiKeyID ids.APIKeyID, amount valueobjects.Money, at time.Time) {
	key := zsetKey(apiKeyID)
	member := formatMember(amount.MinorUnits(), at)
	l.client.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixNano()), Member: member})
	l.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(at.Add(-24*time.Hour).UnixNano(), 10))
	l.client.Expire(ctx, key, 48*time.Hour)
}

// formatMember encodes an amount into a unique sorted-set member; the
// trailing uuid keeps two debits of the same amount at the same
// nanosecond from colliding (Redis sorted sets dedupe by member value).
func formatMember(minorUnits int64, at time.Time) string {
	return fmt.Sprintf("%d:%d:%s", minorUnits, at.UnixNano(), uuid.NewString())
}

func parseMemberAmount(member string) int64 {
	var minorUnits int64
	for i := 0; i < len(member); i++ {
		if member[i] == ':' {
			v, err := strconv.ParseInt(member[:i], 10, 64)
			if err != nil {
				return 0
			}
			minorUnits = v
			break
		}
	}
	return minorUnits
}
