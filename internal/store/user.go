package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/driveline-motors/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, role, password_hash, created_at, updated_at`

func scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Role,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

// EmailInUse reports whether another user (excluding excludeID) already has
// the given email. Pass excludeID 0 to check against all users.
func (r *UserRepository) EmailInUse(ctx context.Context, email string, excludeID int) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UsernameInUse reports whether another user (excluding excludeID) already has
// the given username.
func (r *UserRepository) UsernameInUse(ctx context.Context, username string, excludeID int) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND id <> $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (username, email, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET username = $1,
			email = $2,
			role = $3,
			password_hash = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.Role,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}
