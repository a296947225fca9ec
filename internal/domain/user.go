package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents an account in the domain layer.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateUserParams carries the fields needed to register a user.
type CreateUserParams struct {
	Username     string
	DisplayName  string
	PasswordHash string
}

type UserRepository interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetUserByUsername matches case-insensitively.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// GetUserPasswordHash returns the user and stored hash for credential checks.
	GetUserPasswordHash(ctx context.Context, username string) (*User, string, error)
	// SearchUsers returns users whose username starts with the given prefix,
	// case-insensitively, excluding the searching user.
	SearchUsers(ctx context.Context, prefix string, excludeID uuid.UUID, limit int) ([]*User, error)
}
