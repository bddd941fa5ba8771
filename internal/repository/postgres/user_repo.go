package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// CreateUser inserts a user. A duplicate username or email is reported as
// domain.ErrUsernameTaken.
func (r *UserRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	var emailParam interface{}
	if email != "" {
		emailParam = email
	}

	query := `
	INSERT INTO users (username, password, email)
	VALUES ($1, $2, $3)
	RETURNING id, created_at;
	`
	user := &domain.User{Username: username, Email: email, PasswordHash: passwordHash}
	err := r.DB.QueryRowContext(ctx, query, username, passwordHash, emailParam).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// scanUser is a helper that scans a row into a User struct
func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		user  domain.User
		email sql.NullString
	)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &email, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.Email = email.String
	return &user, nil
}

const userSelectFields = `id, username, password, email, created_at`

// GetUserByUsername returns nil, nil when no such user exists.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE username = $1;`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1);`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userSelectFields+` FROM users ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
