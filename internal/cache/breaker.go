package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/sony/gobreaker"
)

// Breaker wraps a primary Store (Redis) in a circuit breaker. While the
// primary fails, or the circuit is open, calls are served by the fallback
// Store if one is configured; otherwise they return ErrUnavailable.
type Breaker struct {
	primary  Store
	fallback Store
	cb       *gobreaker.CircuitBreaker
	log      logging.Logger
}

type BreakerSettings struct {
	Name                string
	ConsecutiveFailures int
	OpenTimeout         time.Duration
}

// NewBreaker builds a Breaker. fallback may be nil.
func NewBreaker(primary, fallback Store, st BreakerSettings, log logging.Logger) *Breaker {
	if st.ConsecutiveFailures <= 0 {
		st.ConsecutiveFailures = 3
	}
	if st.OpenTimeout <= 0 {
		st.OpenTimeout = 30 * time.Second
	}
	b := &Breaker{primary: primary, fallback: fallback, log: log}
	threshold := uint32(st.ConsecutiveFailures)
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: 1,
		Timeout:     st.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "cache circuit state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return b
}

// State reports the circuit state ("closed", "open", "half-open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// execute runs op against the primary through the circuit and falls back
// on failure. viaPrimary reports which store produced the answer.
func execute[T any](ctx context.Context, b *Breaker, op string, primary func() (T, error), fallback func(Store) (T, error)) (v T, viaPrimary bool, err error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return primary()
	})
	if err == nil || errors.Is(err, ErrMiss) {
		v, _ = res.(T)
		return v, true, err
	}

	b.log.Debug(ctx, "cache primary failed", "op", op, "err", err)
	if b.fallback == nil {
		return v, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	v, err = fallback(b.fallback)
	return v, false, err
}

func (b *Breaker) Get(ctx context.Context, key string) (string, error) {
	v, _, err := execute(ctx, b, "get",
		func() (string, error) { return b.primary.Get(ctx, key) },
		func(s Store) (string, error) { return s.Get(ctx, key) })
	return v, err
}

func (b *Breaker) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	_, viaPrimary, err := execute(ctx, b, "set",
		func() (struct{}, error) { return struct{}{}, b.primary.Set(ctx, key, value, expiration) },
		func(s Store) (struct{}, error) { return struct{}{}, s.Set(ctx, key, value, expiration) })
	if err == nil && viaPrimary {
		b.dropLocal(ctx, key)
	}
	return err
}

func (b *Breaker) Del(ctx context.Context, keys ...string) error {
	_, viaPrimary, err := execute(ctx, b, "del",
		func() (struct{}, error) { return struct{}{}, b.primary.Del(ctx, keys...) },
		func(s Store) (struct{}, error) { return struct{}{}, s.Del(ctx, keys...) })
	if err == nil && viaPrimary {
		b.dropLocal(ctx, keys...)
	}
	return err
}

func (b *Breaker) Incr(ctx context.Context, key string) (int64, error) {
	v, viaPrimary, err := execute(ctx, b, "incr",
		func() (int64, error) { return b.primary.Incr(ctx, key) },
		func(s Store) (int64, error) { return s.Incr(ctx, key) })
	if err == nil && viaPrimary {
		b.dropLocal(ctx, key)
	}
	return v, err
}

func (b *Breaker) Expire(ctx context.Context, key string, expiration time.Duration) error {
	_, _, err := execute(ctx, b, "expire",
		func() (struct{}, error) { return struct{}{}, b.primary.Expire(ctx, key, expiration) },
		func(s Store) (struct{}, error) { return struct{}{}, s.Expire(ctx, key, expiration) })
	return err
}

// DelPattern clears matching keys in the primary and, always, in the fallback.
func (b *Breaker) DelPattern(ctx context.Context, pattern string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.primary.DelPattern(ctx, pattern)
	})
	return b.clearFallback(ctx, "del_pattern", err, func(s Store) error { return s.DelPattern(ctx, pattern) })
}

// Flush empties the primary and, always, the fallback.
func (b *Breaker) Flush(ctx context.Context) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.primary.Flush(ctx)
	})
	return b.clearFallback(ctx, "flush", err, func(s Store) error { return s.Flush(ctx) })
}

func (b *Breaker) clearFallback(ctx context.Context, op string, primaryErr error, clear func(Store) error) error {
	if b.fallback == nil {
		if primaryErr != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, primaryErr)
		}
		return nil
	}
	if primaryErr != nil {
		b.log.Warn(ctx, "cache primary failed, clearing fallback only", "op", op, "err", primaryErr)
	}
	return clear(b.fallback)
}

// dropLocal removes keys from the fallback after the primary accepted a
// write, so a later outage cannot resurface an older local value.
func (b *Breaker) dropLocal(ctx context.Context, keys ...string) {
	if b.fallback == nil {
		return
	}
	_ = b.fallback.Del(ctx, keys...)
}
