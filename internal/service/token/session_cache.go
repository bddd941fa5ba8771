package token

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/iamasit07/cartline/backend/internal/cache"
)

const (
	TokenKeyPrefix     = "auth:token:"
	UserTokenKeyPrefix = "auth:user:"
)

func tokenKey(token string) string { return TokenKeyPrefix + token }

func userKey(userID int64) string { return UserTokenKeyPrefix + strconv.FormatInt(userID, 10) }

// SessionCache stores token->userId and userId->token. Both services read
// it; only the auth service writes it.
type SessionCache struct {
	store cache.Store
}

func NewSessionCache(store cache.Store) *SessionCache {
	return &SessionCache{store: store}
}

func (c *SessionCache) LookupToken(ctx context.Context, token string) (int64, error) {
	val, err := c.store.Get(ctx, tokenKey(token))
	if errors.Is(err, cache.ErrMiss) {
		return 0, ErrNotCached
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, ErrNotCached
	}
	return userID, nil
}

// Put writes both mappings, overwriting any earlier token for the user.
func (c *SessionCache) Put(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if err := c.store.Set(ctx, tokenKey(token), strconv.FormatInt(userID, 10), ttl); err != nil {
		return err
	}
	return c.store.Set(ctx, userKey(userID), token, ttl)
}

// Touch resets the TTL of both mappings if the token is cached. It
// reports whether the token was found.
func (c *SessionCache) Touch(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	userID, err := c.LookupToken(ctx, token)
	if errors.Is(err, ErrNotCached) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := c.store.Expire(ctx, tokenKey(token), ttl); err != nil {
		return true, err
	}
	return true, c.store.Expire(ctx, userKey(userID), ttl)
}

// Remove deletes the user's current token mapping and its reverse entry.
func (c *SessionCache) Remove(ctx context.Context, userID int64) (bool, error) {
	token, err := c.store.Get(ctx, userKey(userID))
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, c.store.Del(ctx, tokenKey(token), userKey(userID))
}
