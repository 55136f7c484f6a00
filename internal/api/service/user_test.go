package service

import (
	"context"
	"testing"

	"github.com/deskbridge/deskapi/internal/api/domain"
	"github.com/deskbridge/deskapi/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestUserServiceAuthenticate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &UserService{Store: st}

	_, err := svc.CreateUser(ctx, domain.User{Username: "alice", Active: true}, "s3cret")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		u, err := svc.Authenticate(ctx, "alice", "s3cret")
		require.NoError(t, err)
		require.Equal(t, "alice", u.Username)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", "s3cret")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, domain.User{Username: "alice", Active: true}, "other")
		require.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("empty password rejected on create", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, domain.User{Username: "emptypw", Active: true}, "")
		require.ErrorIs(t, err, cryptox.ErrEmptyPassword)
	})
}

func TestUserServiceLegacyUpgrade(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &UserService{Store: st}

	// Account imported with an unsalted MD5 digest.
	legacy := createUser(t, st, domain.User{
		Username:     "legacyuser",
		PasswordHash: cryptox.LegacyDigest("old-password"),
		Active:       true,
	})

	t.Run("wrong password leaves hash alone", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "legacyuser", "bad")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		u, err := st.Users().GetUserByID(ctx, legacy.ID)
		require.NoError(t, err)
		require.True(t, cryptox.IsLegacyHash(u.PasswordHash))
	})

	t.Run("successful login upgrades hash", func(t *testing.T) {
		u, err := svc.Authenticate(ctx, "legacyuser", "old-password")
		require.NoError(t, err)
		require.False(t, cryptox.IsLegacyHash(u.PasswordHash))

		stored, err := st.Users().GetUserByID(ctx, legacy.ID)
		require.NoError(t, err)
		require.False(t, cryptox.IsLegacyHash(stored.PasswordHash))
		require.True(t, cryptox.VerifyPassword("old-password", stored.PasswordHash))
	})

	t.Run("login still works after upgrade", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "legacyuser", "old-password")
		require.NoError(t, err)
	})
}

func TestUserServiceChangePassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &UserService{Store: st}

	u, err := svc.CreateUser(ctx, domain.User{Username: "bob", Active: true}, "original")
	require.NoError(t, err)

	t.Run("wrong old password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, u.ID, "nope", "next")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty new password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, u.ID, "original", "")
		require.ErrorIs(t, err, cryptox.ErrEmptyPassword)
	})

	t.Run("successful change", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, u.ID, "original", "updated"))

		_, err := svc.Authenticate(ctx, "bob", "original")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(ctx, "bob", "updated")
		require.NoError(t, err)
	})
}
