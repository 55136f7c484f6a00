package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/deskbridge/deskapi/internal/api/domain"
	"github.com/deskbridge/deskapi/internal/api/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func createTestUser(t *testing.T, st *Store, username string) int64 {
	t.Helper()

	id, err := st.Users().CreateUser(context.Background(), domain.User{
		Username:     username,
		PasswordHash: "hash",
		Active:       true,
	})
	require.NoError(t, err)
	return id
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	id := createTestUser(t, st, "alice")

	t.Run("get by id", func(t *testing.T) {
		u, err := st.Users().GetUserByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "alice", u.Username)
		require.True(t, u.Active)
		require.False(t, u.IsAdmin)
	})

	t.Run("get by username", func(t *testing.T) {
		u, err := st.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, id, u.ID)
	})

	t.Run("unknown user maps to ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetUserByUsername(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username maps to ErrAlreadyExists", func(t *testing.T) {
		_, err := st.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "x"})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("update password hash", func(t *testing.T) {
		require.NoError(t, st.Users().UpdatePasswordHash(ctx, id, "new-hash"))

		u, err := st.Users().GetUserByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "new-hash", u.PasswordHash)
	})
}

func TestSessionTokensRepo(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	userID := createTestUser(t, st, "bob")

	expiry := time.Now().Add(time.Hour).UTC()
	tokenID, err := st.SessionTokens().CreateSessionToken(ctx, domain.SessionToken{
		UserID:     userID,
		DeviceID:   "desk-1",
		DeviceUUID: "uuid-1",
		Token:      "token-value",
		ExpiresAt:  expiry,
	})
	require.NoError(t, err)

	t.Run("get by value", func(t *testing.T) {
		tok, err := st.SessionTokens().GetSessionTokenByValue(ctx, "token-value")
		require.NoError(t, err)
		require.Equal(t, tokenID, tok.ID)
		require.Equal(t, userID, tok.UserID)
		require.Equal(t, "desk-1", tok.DeviceID)
		require.WithinDuration(t, expiry, tok.ExpiresAt, time.Second)
	})

	t.Run("unknown value maps to ErrNotFound", func(t *testing.T) {
		_, err := st.SessionTokens().GetSessionTokenByValue(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate value maps to ErrAlreadyExists", func(t *testing.T) {
		_, err := st.SessionTokens().CreateSessionToken(ctx, domain.SessionToken{
			UserID:    userID,
			Token:     "token-value",
			ExpiresAt: expiry,
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("update expiry", func(t *testing.T) {
		newExpiry := expiry.Add(24 * time.Hour)
		require.NoError(t, st.SessionTokens().UpdateSessionTokenExpiry(ctx, tokenID, newExpiry))

		tok, err := st.SessionTokens().GetSessionTokenByValue(ctx, "token-value")
		require.NoError(t, err)
		require.WithinDuration(t, newExpiry, tok.ExpiresAt, time.Second)
	})

	t.Run("delete by value is idempotent", func(t *testing.T) {
		require.NoError(t, st.SessionTokens().DeleteSessionTokenByValue(ctx, "token-value"))
		require.NoError(t, st.SessionTokens().DeleteSessionTokenByValue(ctx, "token-value"))

		_, err := st.SessionTokens().GetSessionTokenByValue(ctx, "token-value")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSessionTokensRepo_DeleteByUserAndExpired(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	userA := createTestUser(t, st, "usera")
	userB := createTestUser(t, st, "userb")

	now := time.Now().UTC()
	seed := []domain.SessionToken{
		{UserID: userA, Token: "a-live", ExpiresAt: now.Add(time.Hour)},
		{UserID: userA, Token: "a-expired", ExpiresAt: now.Add(-time.Hour)},
		{UserID: userB, Token: "b-live", ExpiresAt: now.Add(time.Hour)},
		{UserID: userB, Token: "b-expired", ExpiresAt: now.Add(-time.Minute)},
	}
	for _, tok := range seed {
		_, err := st.SessionTokens().CreateSessionToken(ctx, tok)
		require.NoError(t, err)
	}

	t.Run("delete all for user", func(t *testing.T) {
		require.NoError(t, st.SessionTokens().DeleteSessionTokensByUserID(ctx, userA))

		_, err := st.SessionTokens().GetSessionTokenByValue(ctx, "a-live")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.SessionTokens().GetSessionTokenByValue(ctx, "b-live")
		require.NoError(t, err)
	})

	t.Run("delete expired reports count", func(t *testing.T) {
		deleted, err := st.SessionTokens().DeleteExpiredSessionTokens(ctx, now)
		require.NoError(t, err)
		require.Equal(t, int64(1), deleted) // only b-expired remains expired

		_, err = st.SessionTokens().GetSessionTokenByValue(ctx, "b-expired")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.SessionTokens().GetSessionTokenByValue(ctx, "b-live")
		require.NoError(t, err)
	})
}
