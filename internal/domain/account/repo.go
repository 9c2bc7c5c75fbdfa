package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrBadRefresh     = errors.New("invalid or expired refresh token")
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	// SetRefreshTokenHash stores the hash of the user's current refresh
	// token, or clears it when hash is nil.
	SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error
}
