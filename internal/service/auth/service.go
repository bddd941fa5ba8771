package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iamasit07/cartline/backend/internal/cache"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
	authkit "github.com/iamasit07/cartline/backend/pkg/auth"
)

const (
	loginAttemptsKeyPrefix = "login:attempts:"
	userKeyPrefix          = "user:"
	userCacheTTL           = time.Hour
)

type UserRepository interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type TokenEngine interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Validate(ctx context.Context, token string) (domain.Resolution, error)
	Refresh(ctx context.Context, token string)
	Invalidate(ctx context.Context, userID int64)
}

// Service handles signup, login and logout on top of the token engine.
type Service struct {
	users         UserRepository
	tokens        TokenEngine
	cache         cache.Store
	attemptWindow time.Duration
	log           logging.Logger
}

func NewService(users UserRepository, tokens TokenEngine, store cache.Store, attemptWindow time.Duration, log logging.Logger) *Service {
	return &Service{
		users:         users,
		tokens:        tokens,
		cache:         store,
		attemptWindow: attemptWindow,
		log:           log,
	}
}

func (s *Service) Signup(ctx context.Context, username, password, email string) (*domain.AuthResult, error) {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUsernameTaken
	}

	if len(password) > authkit.MaxPasswordBytes {
		return nil, domain.ErrPasswordTooLong
	}
	hash, err := authkit.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// the unique constraint still catches a concurrent signup
	user, err := s.users.CreateUser(ctx, username, email, hash)
	if err != nil {
		return nil, err
	}
	s.cacheUser(ctx, user)

	return s.issue(ctx, user.ID)
}

func (s *Service) Login(ctx context.Context, username, password string) (*domain.AuthResult, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !authkit.CheckPasswordHash(password, user.PasswordHash) {
		s.recordFailedAttempt(ctx, username)
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.cache.Del(ctx, loginAttemptsKeyPrefix+username); err != nil {
		s.log.Warn(ctx, "failed to reset login attempts", "key", loginAttemptsKeyPrefix+username, "err", err)
	}
	s.cacheUser(ctx, user)

	return s.issue(ctx, user.ID)
}

// Logout drops the token's cache mapping. The token is resolved first so
// that an unknown token is reported rather than silently accepted.
func (s *Service) Logout(ctx context.Context, token string) error {
	res, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return err
	}
	s.tokens.Invalidate(ctx, res.UserID)
	s.log.Info(ctx, "user logged out", "user_id", res.UserID)
	return nil
}

// Validate resolves the token and, when valid, extends its cache TTL.
func (s *Service) Validate(ctx context.Context, token string) (domain.Resolution, error) {
	res, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return domain.Resolution{}, err
	}
	s.tokens.Refresh(ctx, token)
	return res, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

// LoginAttempts returns the failed-login count inside the current window.
// It is informational; logins are never blocked on it.
func (s *Service) LoginAttempts(ctx context.Context, username string) (int64, error) {
	val, err := s.cache.Get(ctx, loginAttemptsKeyPrefix+username)
	if errors.Is(err, cache.ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *Service) issue(ctx context.Context, userID int64) (*domain.AuthResult, error) {
	token, err := s.tokens.Issue(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{Token: token, UserID: userID}, nil
}

func (s *Service) recordFailedAttempt(ctx context.Context, username string) {
	key := loginAttemptsKeyPrefix + username
	n, err := s.cache.Incr(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "failed to count login attempt", "key", key, "err", err)
		return
	}
	if n == 1 {
		if err := s.cache.Expire(ctx, key, s.attemptWindow); err != nil {
			s.log.Warn(ctx, "failed to set login attempt window", "key", key, "err", err)
		}
	}
	s.log.Info(ctx, "failed login", "username", username, "attempts", n)
}

func (s *Service) cacheUser(ctx context.Context, user *domain.User) {
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	key := userKeyPrefix + strconv.FormatInt(user.ID, 10)
	if err := s.cache.Set(ctx, key, data, userCacheTTL); err != nil {
		s.log.Warn(ctx, "failed to cache user", "key", key, "err", err)
	}
}
