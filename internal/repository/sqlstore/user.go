package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jinxlo/api-dashboard/internal/domain"
)

const userColumns = `id, email, normalized_email, name, password_hash, created_at, updated_at`

// UserRepository handles user data access
type UserRepository struct {
	db  *DB
	now func() time.Time
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.SQL.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.NormalizedEmail,
		user.Name,
		user.PasswordHash,
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	)
	if err != nil {
		if r.db.isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by normalized email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE normalized_email = ?`
	return scanUser(r.db.SQL.QueryRowContext(ctx, query, domain.NormalizeEmail(email)))
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.SQL.QueryRowContext(ctx, query, id))
}

// UpdateProfile changes the display name and email of a user
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error) {
	query := `UPDATE users SET name = ?, email = ?, normalized_email = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.SQL.ExecContext(ctx, query, name, email, domain.NormalizeEmail(email), toMillis(r.now()), id)
	if err != nil {
		if r.db.isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrNotFound
	}

	return r.FindByID(ctx, id)
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.SQL.ExecContext(ctx, query, passwordHash, toMillis(r.now()), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user               domain.User
		created, updatedAt int64
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.NormalizedEmail,
		&user.Name,
		&user.PasswordHash,
		&created,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = fromMillis(created)
	user.UpdatedAt = fromMillis(updatedAt)
	return &user, nil
}
