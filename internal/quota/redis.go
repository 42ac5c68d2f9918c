package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/theirongolddev/tripgate/internal/config"
)

// reserveScript trims both windows, refuses when either is full and
// otherwise records the request in both. Returns 0 on success, 1 when the
// minute window is full and 2 when the hour window is full.
var reserveScript = redis.NewScript(`
local now = tonumber(ARGV[1])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - 60000)
redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', now - 3600000)
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[2]) then
  return 1
end
if redis.call('ZCARD', KEYS[2]) >= tonumber(ARGV[3]) then
  return 2
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('ZADD', KEYS[2], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], 60000)
redis.call('PEXPIRE', KEYS[2], 3600000)
return 0
`)

// RedisReserver claims request slots in Redis sorted sets, one pair of keys
// per user.
type RedisReserver struct {
	rdb    redis.Scripter
	prefix string
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// NewRedisReserver returns a reserver using keys under prefix.
func NewRedisReserver(rdb redis.Scripter, prefix string) *RedisReserver {
	return &RedisReserver{rdb: rdb, prefix: prefix}
}

// Reserve implements Reserver.
func (r *RedisReserver) Reserve(ctx context.Context, userID string, limit config.RateLimit, now time.Time) (Window, error) {
	keys := []string{
		r.prefix + "quota:" + userID + ":minute",
		r.prefix + "quota:" + userID + ":hour",
	}
	res, err := reserveScript.Run(ctx, r.rdb, keys,
		now.UnixMilli(), limit.RequestsPerMinute, limit.RequestsPerHour, uuid.NewString(),
	).Int()
	if err != nil {
		return WindowUnknown, err
	}
	switch res {
	case 0:
		return WindowNone, nil
	case 1:
		return WindowMinute, nil
	case 2:
		return WindowHour, nil
	}
	return WindowUnknown, fmt.Errorf("unexpected reserve result %d", res)
}
