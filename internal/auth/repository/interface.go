package repository

import (
	"context"

	"github.com/google/uuid"
)

// UserReader provides read operations for users.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// EmailTaken reports whether another user (not exclude) owns email.
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
}

// UserWriter provides write operations for users.
type UserWriter interface {
	Create(ctx context.Context, params CreateParams) (User, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository combines all user operations.
type Repository interface {
	UserReader
	UserWriter
}
