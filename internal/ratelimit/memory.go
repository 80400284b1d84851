package ratelimit

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryLimiter keeps counters in process. Use it when Redis is not configured
// and only a single replica serves traffic.
type MemoryLimiter struct {
	counters *cache.Cache
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{counters: cache.New(cache.NoExpiration, time.Minute)}
}

func (l *MemoryLimiter) Admit(_ context.Context, identity string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return allow(), nil
	}
	key := windowKey(identity, window)
	for {
		// Add only succeeds for the first call of a window.
		if err := l.counters.Add(key, 1, window); err == nil {
			return allow(), nil
		}
		n, err := l.counters.IncrementInt(key, 1)
		if err == nil {
			if n <= limit {
				return allow(), nil
			}
			var left time.Duration
			if _, expires, found := l.counters.GetWithExpiration(key); found && !expires.IsZero() {
				left = time.Until(expires)
			}
			return reject(left, window), nil
		}
		// The window expired between Add and IncrementInt; start a new one.
	}
}
