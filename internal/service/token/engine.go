package token

import (
	"context"
	"fmt"

	"github.com/iamasit07/cartline/backend/internal/cache"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/iamasit07/cartline/backend/pkg/auth"
)

// ClaimVerifier is the signed-claim authority: signature and expiry only.
type ClaimVerifier struct {
	signer *auth.Signer
}

func NewClaimVerifier(signer *auth.Signer) *ClaimVerifier {
	return &ClaimVerifier{signer: signer}
}

func (v *ClaimVerifier) VerifyToken(_ context.Context, token string) (int64, error) {
	claims, err := v.signer.Verify(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return userID, nil
}

// Engine issues, validates, refreshes and invalidates tokens.
//
// Invalidate only clears the cache. A signed token stays verifiable until
// its own expiry, so after logout the cache path rejects it while the
// signed-claim path still accepts it; Validate reports which one answered.
type Engine struct {
	signer   *auth.Signer
	sessions *SessionCache
	resolver *Resolver
	log      logging.Logger
}

func NewEngine(store cache.Store, signer *auth.Signer, log logging.Logger) *Engine {
	sessions := NewSessionCache(store)
	return &Engine{
		signer:   signer,
		sessions: sessions,
		resolver: NewResolver(sessions, NewClaimVerifier(signer), domain.SourceSignedClaim, log),
		log:      log,
	}
}

// Issue mints a token for the user and mirrors it into the cache. The
// cache write is best-effort: an unreachable cache still yields a token.
func (e *Engine) Issue(ctx context.Context, userID int64) (string, error) {
	token, err := e.signer.Sign(userID)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	if err := e.sessions.Put(ctx, token, userID, e.signer.TTL()); err != nil {
		e.log.Warn(ctx, "failed to cache issued token", "user_id", userID, "err", err)
	}
	return token, nil
}

// Validate resolves the token to a user id: cache first, signed claim second.
func (e *Engine) Validate(ctx context.Context, token string) (domain.Resolution, error) {
	return e.resolver.Resolve(ctx, token)
}

// LookupCached runs only the cache step. It returns ErrNotCached when the
// cache holds no mapping, including after Invalidate.
func (e *Engine) LookupCached(ctx context.Context, token string) (int64, error) {
	return e.sessions.LookupToken(ctx, token)
}

// Refresh extends both cache entries back to the full window. Tokens that
// are not cached (validated through the signed claim) are left alone.
func (e *Engine) Refresh(ctx context.Context, token string) {
	found, err := e.sessions.Touch(ctx, token, e.signer.TTL())
	if err != nil {
		e.log.Warn(ctx, "failed to refresh token ttl", "err", err)
		return
	}
	if !found {
		e.log.Debug(ctx, "refresh skipped, token not cached")
	}
}

// Invalidate drops the user's cache mappings. The signed token itself
// remains valid until it expires.
func (e *Engine) Invalidate(ctx context.Context, userID int64) {
	removed, err := e.sessions.Remove(ctx, userID)
	if err != nil {
		e.log.Warn(ctx, "failed to invalidate cached token", "user_id", userID, "err", err)
		return
	}
	if !removed {
		e.log.Debug(ctx, "no cached token to invalidate", "user_id", userID)
	}
}
