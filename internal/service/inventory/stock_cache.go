package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/iamasit07/cartline/backend/internal/cache"
	"github.com/iamasit07/cartline/backend/internal/logging"
)

const (
	stockKeyPrefix = "product:stock:"
	viewsKeyPrefix = "product:views:"
	viewsTTL       = 7 * 24 * time.Hour
)

func stockKey(productID int64) string { return stockKeyPrefix + strconv.FormatInt(productID, 10) }

func viewsKey(productID int64) string { return viewsKeyPrefix + strconv.FormatInt(productID, 10) }

// StockCache mirrors ledger stock and keeps product view counters. It is
// advisory: every method absorbs cache errors, and nothing here is used to
// decide a reservation.
type StockCache struct {
	store cache.Store
	ttl   time.Duration
	log   logging.Logger
}

// NewStockCache expects store to fall back to an in-process store when the
// shared cache is down (see cache.Breaker).
func NewStockCache(store cache.Store, ttl time.Duration, log logging.Logger) *StockCache {
	return &StockCache{store: store, ttl: ttl, log: log}
}

// Get reports the cached stock and whether there was a usable entry.
func (c *StockCache) Get(ctx context.Context, productID int64) (int, bool) {
	key := stockKey(productID)
	val, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn(ctx, "stock cache read failed", "key", key, "err", err)
		}
		return 0, false
	}
	stock, err := strconv.Atoi(val)
	if err != nil {
		c.log.Warn(ctx, "stock cache holds a non-integer", "key", key, "value", val)
		return 0, false
	}
	return stock, true
}

func (c *StockCache) Put(ctx context.Context, productID int64, stock int) {
	key := stockKey(productID)
	if err := c.store.Set(ctx, key, stock, c.ttl); err != nil {
		c.log.Warn(ctx, "stock cache write failed", "key", key, "err", err)
	}
}

// IncrViews bumps the view counter. The 7-day window starts at the first view.
func (c *StockCache) IncrViews(ctx context.Context, productID int64) int64 {
	key := viewsKey(productID)
	n, err := c.store.Incr(ctx, key)
	if err != nil {
		c.log.Warn(ctx, "view counter increment failed", "key", key, "err", err)
		return 0
	}
	if n == 1 {
		if err := c.store.Expire(ctx, key, viewsTTL); err != nil {
			c.log.Warn(ctx, "view counter expiry failed", "key", key, "err", err)
		}
	}
	return n
}

func (c *StockCache) Views(ctx context.Context, productID int64) int64 {
	key := viewsKey(productID)
	val, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn(ctx, "view counter read failed", "key", key, "err", err)
		}
		return 0
	}
	n, _ := strconv.ParseInt(val, 10, 64)
	return n
}

// Clear drops every stock entry and view counter.
func (c *StockCache) Clear(ctx context.Context) {
	for _, pattern := range []string{stockKeyPrefix + "*", viewsKeyPrefix + "*"} {
		if err := c.store.DelPattern(ctx, pattern); err != nil {
			c.log.Warn(ctx, "cache clear failed", "pattern", pattern, "err", err)
		}
	}
}
