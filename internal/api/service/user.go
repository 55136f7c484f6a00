package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/deskbridge/deskapi/internal/api/domain"
	"github.com/deskbridge/deskapi/internal/api/store"
	"github.com/deskbridge/deskapi/pkg/cryptox"
	"github.com/deskbridge/deskapi/pkg/slogx"
)

var (
	// ErrInvalidCredentials covers both unknown-username and wrong-password
	// so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUsernameTaken      = errors.New("username_taken")
)

type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// Authenticate verifies a username/password pair. On success against a
// legacy MD5 hash the stored hash is upgraded to bcrypt in place; an upgrade
// failure is logged but does not fail the login.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		log.Debug("login failed: unknown username", "username", username)
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if !cryptox.VerifyPassword(password, u.PasswordHash) {
		log.Debug("login failed: password mismatch", "user_id", u.ID)
		return domain.User{}, ErrInvalidCredentials
	}

	if cryptox.IsLegacyHash(u.PasswordHash) {
		upgraded, err := cryptox.HashPassword(password)
		if err == nil {
			if err := s.Store.Users().UpdatePasswordHash(ctx, u.ID, upgraded); err != nil {
				log.Warn("failed to persist upgraded password hash", "user_id", u.ID, "error", err)
			} else {
				u.PasswordHash = upgraded
				log.Info("legacy password hash upgraded", "user_id", u.ID)
			}
		}
	}

	return u, nil
}

// CreateUser hashes the password and stores a new account.
func (s *UserService) CreateUser(ctx context.Context, u domain.User, password string) (domain.User, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	u.PasswordHash = hash

	id, err := s.Store.Users().CreateUser(ctx, u)
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.User{}, ErrUsernameTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	u.ID = id
	return u, nil
}

// ChangePassword verifies the old password and stores a bcrypt hash of the
// new one. Callers are expected to revoke the user's sessions afterwards.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	if !cryptox.VerifyPassword(oldPassword, u.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	slogx.FromContext(ctx).Info("password changed", "user_id", userID)
	return nil
}
