package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchCache(t *testing.T, ttl time.Duration) (*SearchCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSearchCache(client, ttl), mr
}

func TestSearchCacheRoundTrip(t *testing.T) {
	c, mr := newSearchCache(t, time.Minute)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "golang", 5, 0)
	require.NoError(t, err)
	assert.False(t, hit)

	urls := []string{"https://go.dev", "https://pkg.go.dev"}
	require.NoError(t, c.Set(ctx, "  Golang ", 5, 0, urls))

	got, hit, err := c.Get(ctx, "golang", 5, 0)
	require.NoError(t, err)
	assert.True(t, hit, "keys ignore case and surrounding spaces")
	assert.Equal(t, urls, got)

	_, hit, err = c.Get(ctx, "golang", 5, 5)
	require.NoError(t, err)
	assert.False(t, hit, "offset is part of the key")

	mr.FastForward(2 * time.Minute)
	_, hit, err = c.Get(ctx, "golang", 5, 0)
	require.NoError(t, err)
	assert.False(t, hit, "entries expire after the ttl")
}

func TestSearchCacheCorruptEntry(t *testing.T) {
	c, mr := newSearchCache(t, time.Minute)
	require.NoError(t, mr.Set("cmp:search:5:0:golang", "not json"))

	_, hit, err := c.Get(context.Background(), "golang", 5, 0)
	assert.Error(t, err)
	assert.False(t, hit)
}
