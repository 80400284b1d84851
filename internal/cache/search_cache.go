package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

type SearchCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewSearchCache(client *redisv9.Client, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SearchCache{client: client, ttl: ttl}
}

func (c *SearchCache) Get(ctx context.Context, query string, count, offset int) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(query, count, offset)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get search results failed: %w", err)
	}

	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached search results failed: %w", err)
	}
	return urls, true, nil
}

func (c *SearchCache) Set(ctx context.Context, query string, count, offset int, urls []string) error {
	payload, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("marshal search results failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(query, count, offset), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set search results failed: %w", err)
	}
	return nil
}

func (c *SearchCache) key(query string, count, offset int) string {
	return fmt.Sprintf("cmp:search:%d:%d:%s", count, offset, strings.ToLower(strings.TrimSpace(query)))
}
