package account

import (
	"context"

	"github.com/google/uuid"
)

// Store defines persistence for users and profiles.
type Store interface {
	// CreateUser persists a new user with their password hash.
	// Returns ErrEmailAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, user *User, passwordHash []byte) error

	// GetUserByID returns ErrUserNotFound when no user exists.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetUserByEmail returns ErrUserNotFound when no user exists.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetPasswordHash returns the stored bcrypt hash for the user.
	GetPasswordHash(ctx context.Context, userID uuid.UUID) ([]byte, error)

	// GetProfile returns ErrProfileNotFound when the user has no profile yet.
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)

	// UpsertProfile creates or updates the profile keyed by UserID.
	UpsertProfile(ctx context.Context, profile *Profile) error

	// CreateProfileIfAbsent inserts a profile only when the user has none.
	CreateProfileIfAbsent(ctx context.Context, profile *Profile) error
}
