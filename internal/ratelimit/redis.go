package ratelimit

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// The counter and its expiry are set in one script so concurrent admissions
// for the same identity never observe the same count. The script answers
// {count, milliseconds left in the window}.
var incrementWindow = redisv9.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

type RedisLimiter struct {
	client *redisv9.Client
	prefix string
}

func NewRedisLimiter(client *redisv9.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "cmp:ratelimit:"}
}

func (l *RedisLimiter) Admit(ctx context.Context, identity string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return allow(), nil
	}
	key := l.prefix + windowKey(identity, window)
	reply, err := incrementWindow.Run(ctx, l.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit failed: %w", err)
	}
	if len(reply) != 2 {
		return Decision{}, fmt.Errorf("redis rate limit: unexpected reply %v", reply)
	}
	if reply[0] <= int64(limit) {
		return allow(), nil
	}
	return reject(time.Duration(reply[1])*time.Millisecond, window), nil
}
