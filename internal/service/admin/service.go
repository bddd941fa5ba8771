package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/iamasit07/cartline/backend/internal/cache"
	"github.com/iamasit07/cartline/backend/internal/logging"
)

var ErrDisabled = errors.New("admin reset is disabled")

type Resetter interface {
	Reset(ctx context.Context) error
}

// Service resets the shopping environment to its seeded state.
type Service struct {
	repo  Resetter
	cache cache.Store
	key   string
	log   logging.Logger
}

// NewService builds the admin service. An empty key disables Reset.
func NewService(repo Resetter, store cache.Store, key string, log logging.Logger) *Service {
	return &Service{repo: repo, cache: store, key: key, log: log}
}

func (s *Service) Enabled() bool {
	return s.key != ""
}

// Authorize reports whether key matches the configured admin key.
func (s *Service) Authorize(key string) bool {
	return s.Enabled() && subtle.ConstantTimeCompare([]byte(key), []byte(s.key)) == 1
}

// Reset truncates carts, reseeds products and flushes the cache.
func (s *Service) Reset(ctx context.Context) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if err := s.repo.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	if err := s.cache.Flush(ctx); err != nil {
		s.log.Warn(ctx, "failed to flush cache during reset", "err", err)
	}
	s.log.Info(ctx, "environment reset")
	return nil
}
