// Package token owns the bearer-token lifecycle: issue, validate, refresh
// and invalidate, with the Session Cache as the fast authority and the
// signed claim (or the auth service, on the shopping side) as fallback.
package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/iamasit07/cartline/backend/internal/cache"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
)

// ErrNotCached means step one has no mapping for the token.
var ErrNotCached = errors.New("token not cached")

// CacheLookup is step one of resolution: the token->user cache mapping.
// It returns ErrNotCached on a miss, or an error wrapping
// cache.ErrUnavailable when the cache cannot be reached.
type CacheLookup interface {
	LookupToken(ctx context.Context, token string) (int64, error)
}

// Verifier is step two: an authority that can vouch for a token without
// the cache.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (int64, error)
}

// Resolver tries the cache first and falls back to the verifier. The
// returned Resolution says which step answered.
type Resolver struct {
	cache          CacheLookup
	verifier       Verifier
	fallbackSource domain.ResolutionSource
	log            logging.Logger
}

func NewResolver(lookup CacheLookup, verifier Verifier, fallbackSource domain.ResolutionSource, log logging.Logger) *Resolver {
	return &Resolver{
		cache:          lookup,
		verifier:       verifier,
		fallbackSource: fallbackSource,
		log:            log,
	}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (domain.Resolution, error) {
	if token == "" {
		return domain.Resolution{}, domain.ErrInvalidToken
	}

	userID, err := r.cache.LookupToken(ctx, token)
	switch {
	case err == nil:
		return domain.Resolution{UserID: userID, Source: domain.SourceCache}, nil
	case errors.Is(err, cache.ErrUnavailable):
		r.log.Warn(ctx, "session cache unavailable, verifying token without it", "err", err)
	case !errors.Is(err, ErrNotCached):
		r.log.Warn(ctx, "session cache lookup failed", "err", err)
	}

	userID, err = r.verifier.VerifyToken(ctx, token)
	if err != nil {
		r.log.Debug(ctx, "token rejected", "source", string(r.fallbackSource), "err", err)
		if errors.Is(err, domain.ErrInvalidToken) {
			return domain.Resolution{}, err
		}
		return domain.Resolution{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return domain.Resolution{UserID: userID, Source: r.fallbackSource}, nil
}
