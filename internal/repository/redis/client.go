package redis

import (
	"context"
	"errors"
	"time"

	"github.com/iamasit07/cartline/backend/internal/cache"
	"github.com/iamasit07/cartline/backend/internal/config"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// NewClient builds a Redis client and pings it once. An unreachable Redis
// is not fatal: the client is still returned so the cache breaker can
// pick it up again once Redis comes back.
func NewClient(ctx context.Context, cfg config.RedisConfig, log logging.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn(ctx, "could not connect to redis, serving from fallbacks", "addr", cfg.Addr, "err", err)
		return client
	}
	log.Info(ctx, "redis connected", "addr", cfg.Addr)
	return client
}

// RedisCache adapts redis.Client to cache.Store.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set stores a key-value pair with expiration
func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value by key; a missing key yields cache.ErrMiss.
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", cache.ErrMiss
	}
	return val, err
}

// Del deletes keys
func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *RedisCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return r.client.Expire(ctx, key, expiration).Err()
}

// DelPattern deletes every key matching pattern, walking the keyspace
// with SCAN rather than KEYS.
func (r *RedisCache) DelPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return r.Del(ctx, batch...)
}

func (r *RedisCache) Flush(ctx context.Context) error {
	return r.client.FlushDB(ctx).Err()
}
