package cache

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"
)

type localEntry struct {
	value     string
	expiresAt time.Time
}

func (e localEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LocalStore is an in-process Store scoped to one service instance. It is
// neither shared nor durable and only stands in while Redis is down.
type LocalStore struct {
	mu      sync.Mutex
	entries map[string]localEntry
	now     func() time.Time
}

func NewLocalStore() *LocalStore {
	return &LocalStore{
		entries: make(map[string]localEntry),
		now:     time.Now,
	}
}

func (s *LocalStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return "", ErrMiss
	}
	return e.value, nil
}

func (s *LocalStore) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := localEntry{value: stringify(value)}
	if expiration > 0 {
		e.expiresAt = s.now().Add(expiration)
	}
	s.entries[key] = e
	return nil
}

func (s *LocalStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

func (s *LocalStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	var n int64
	if ok {
		parsed, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %s is not an integer", key)
		}
		n = parsed
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	s.entries[key] = e
	return n, nil
}

// Expire sets a new TTL. Like Redis EXPIRE, a non-positive TTL deletes the key.
func (s *LocalStore) Expire(_ context.Context, key string, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return nil
	}
	if expiration <= 0 {
		delete(s.entries, key)
		return nil
	}
	e.expiresAt = s.now().Add(expiration)
	s.entries[key] = e
	return nil
}

// DelPattern removes keys matching a glob pattern ("product:stock:*").
func (s *LocalStore) DelPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if ok, _ := path.Match(pattern, k); ok {
			delete(s.entries, k)
		}
	}
	return nil
}

func (s *LocalStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]localEntry)
	return nil
}

// lookup must be called with mu held. Expired entries are dropped lazily.
func (s *LocalStore) lookup(key string) (localEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return localEntry{}, false
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return localEntry{}, false
	}
	return e, true
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
