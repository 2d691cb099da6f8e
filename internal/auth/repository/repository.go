package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, password_hash, created_at, updated_at`

const (
	getUserByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	getUserByEmailQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1)`

	emailTakenQuery = `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE lower(email) = lower($1) AND id <> $2
		)`

	createUserQuery = `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	updateNameQuery     = `UPDATE users SET name = $2, updated_at = now() WHERE id = $1`
	updateEmailQuery    = `UPDATE users SET email = $2, updated_at = now() WHERE id = $1`
	updatePasswordQuery = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	deleteUserQuery     = `DELETE FROM users WHERE id = $1`
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateParams contains the fields of a new user.
type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new users repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, getUserByIDQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, getUserByEmailQuery, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *Repo) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	var taken bool
	if err := r.pool.QueryRow(ctx, emailTakenQuery, email, exclude).Scan(&taken); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return taken, nil
}

func (r *Repo) Create(ctx context.Context, params CreateParams) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, createUserQuery, params.Name, params.Email, params.PasswordHash))
	if isUniqueViolation(err) {
		return User{}, ErrDuplicate
	}
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *Repo) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return r.exec(ctx, "update user name", updateNameQuery, id, name)
}

func (r *Repo) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	return r.exec(ctx, "update user email", updateEmailQuery, id, email)
}

func (r *Repo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.exec(ctx, "update user password", updatePasswordQuery, id, passwordHash)
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, "delete user", deleteUserQuery, id)
}

func (r *Repo) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
