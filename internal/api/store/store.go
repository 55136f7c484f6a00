// Package store defines the persistence boundary. Drivers live under
// drivers/ and implement Store against a concrete database.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/deskbridge/deskapi/internal/api/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrAlreadyExists is returned on unique constraint violations.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store aggregates the repositories backing the service.
type Store interface {
	Users() Users
	SessionTokens() SessionTokens

	ApplyMigrations() error
	Ping(ctx context.Context) error
	Close() error
}

// Users is the user account repository.
type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, u domain.User) (int64, error)
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error
}

// SessionTokens is the opaque session token repository.
type SessionTokens interface {
	// CreateSessionToken inserts a token row and returns its id.
	// Returns ErrAlreadyExists if the token value collides.
	CreateSessionToken(ctx context.Context, t domain.SessionToken) (int64, error)
	GetSessionTokenByValue(ctx context.Context, token string) (domain.SessionToken, error)
	UpdateSessionTokenExpiry(ctx context.Context, id int64, expiresAt time.Time) error
	// DeleteSessionTokenByValue removes a token row; deleting an absent
	// token is not an error.
	DeleteSessionTokenByValue(ctx context.Context, token string) error
	DeleteSessionTokensByUserID(ctx context.Context, userID int64) error
	// DeleteExpiredSessionTokens removes every row with expires_at <= now
	// and returns the number of rows deleted.
	DeleteExpiredSessionTokens(ctx context.Context, now time.Time) (int64, error)
}
