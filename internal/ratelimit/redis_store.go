package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces window keys in Redis.
const DefaultKeyPrefix = "ratelimit:generation:"

// RedisStore keeps each window as a sorted set of request times scored by
// Unix nanoseconds.
type RedisStore struct {
	rdb    goredis.Cmdable
	prefix string
}

var _ WindowStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. An empty prefix uses DefaultKeyPrefix.
func NewRedisStore(rdb goredis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Load implements WindowStore.
func (s *RedisStore) Load(ctx context.Context, key string) ([]time.Time, error) {
	members, err := s.rdb.ZRangeWithScores(ctx, s.prefix+key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange: %w", err)
	}
	times := make([]time.Time, 0, len(members))
	for _, m := range members {
		// The member holds the exact nanoseconds; the float score does not.
		ns, err := strconv.ParseInt(fmt.Sprint(m.Member), 10, 64)
		if err != nil {
			ns = int64(m.Score)
		}
		times = append(times, time.Unix(0, ns))
	}
	return times, nil
}

// Save implements WindowStore. The set is replaced atomically.
func (s *RedisStore) Save(ctx context.Context, key string, times []time.Time, expiry time.Duration) error {
	k := s.prefix + key
	members := make([]goredis.Z, 0, len(times))
	for _, t := range times {
		ns := t.UnixNano()
		members = append(members, goredis.Z{Score: float64(ns), Member: strconv.FormatInt(ns, 10)})
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, k)
		if len(members) > 0 {
			pipe.ZAdd(ctx, k, members...)
			pipe.Expire(ctx, k, expiry)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save window: %w", err)
	}
	return nil
}

// Ping reports whether the server is reachable.
func Ping(ctx context.Context, rdb goredis.Cmdable) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
