package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/iamasit07/cartline/backend/internal/cache"
	"github.com/iamasit07/cartline/backend/internal/config"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(context.Background(), config.RedisConfig{Addr: mr.Addr()}, logging.Discard())
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_GetSetDel(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, err := c.Get(ctx, "auth:token:abc")
	assert.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, c.Set(ctx, "auth:token:abc", "7", time.Hour))
	v, err := c.Get(ctx, "auth:token:abc")
	require.NoError(t, err)
	assert.Equal(t, "7", v)
	assert.Equal(t, time.Hour, mr.TTL("auth:token:abc"))

	require.NoError(t, c.Del(ctx, "auth:token:abc"))
	assert.False(t, mr.Exists("auth:token:abc"))
	require.NoError(t, c.Del(ctx))
}

func TestRedisCache_IncrExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	n, err := c.Incr(ctx, "product:views:1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, c.Expire(ctx, "product:views:1", 7*24*time.Hour))
	assert.Equal(t, 7*24*time.Hour, mr.TTL("product:views:1"))

	mr.FastForward(7*24*time.Hour + time.Second)
	_, err = c.Get(ctx, "product:views:1")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestRedisCache_DelPatternAndFlush(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	for i := 0; i < 250; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("product:stock:%d", i), "1"))
	}
	require.NoError(t, mr.Set("auth:user:1", "tok"))

	require.NoError(t, c.DelPattern(ctx, "product:stock:*"))
	assert.Equal(t, []string{"auth:user:1"}, mr.Keys())

	require.NoError(t, c.Flush(ctx))
	assert.Empty(t, mr.Keys())
}

func TestRedisCache_Unreachable(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, cache.ErrMiss)
}
