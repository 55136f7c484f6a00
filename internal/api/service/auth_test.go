package service

import (
	"context"
	"testing"
	"time"

	"github.com/deskbridge/deskapi/internal/api/domain"
	"github.com/deskbridge/deskapi/internal/api/store"
	"github.com/deskbridge/deskapi/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a Store and counts session token lookups, so tests can
// assert the opaque store was never consulted.
type countingStore struct {
	store.Store
	lookups int
}

func (c *countingStore) SessionTokens() store.SessionTokens {
	return &countingSessionTokens{SessionTokens: c.Store.SessionTokens(), counter: &c.lookups}
}

type countingSessionTokens struct {
	store.SessionTokens
	counter *int
}

func (c *countingSessionTokens) GetSessionTokenByValue(ctx context.Context, token string) (domain.SessionToken, error) {
	*c.counter++
	return c.SessionTokens.GetSessionTokenByValue(ctx, token)
}

func newAuthFixture(t *testing.T, secret string) (*AuthService, store.Store, *fakeClock) {
	t.Helper()

	st := newTestStore(t)
	clock := &fakeClock{now: time.Now().UTC()}
	tokens := &TokenService{Store: st, TTL: 7 * 24 * time.Hour, Now: clock.Get}
	signed := jwtx.NewManager(secret, "deskapi", 24*time.Hour)

	return &AuthService{Store: st, Tokens: tokens, Signed: signed}, st, clock
}

func TestResolveEmptyCredential(t *testing.T) {
	auth, _, _ := newAuthFixture(t, "secret")

	for _, class := range []PathClass{PathClassGeneral, PathClassAdmin} {
		_, err := auth.Resolve(context.Background(), class, "   ")
		require.ErrorIs(t, err, ErrUnauthenticated)
	}
}

func TestResolveGeneralOpaque(t *testing.T) {
	ctx := context.Background()
	auth, st, clock := newAuthFixture(t, "secret")
	user := createUser(t, st, domain.User{Username: "alice", PasswordHash: "x", Active: true})

	tok, err := auth.Tokens.Issue(ctx, user.ID, "", "")
	require.NoError(t, err)

	t.Run("valid token resolves principal", func(t *testing.T) {
		p, err := auth.Resolve(ctx, PathClassGeneral, tok.Token)
		require.NoError(t, err)
		require.Equal(t, user.ID, p.UserID)
		require.Equal(t, "alice", p.Username)
		require.False(t, p.IsAdmin)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := auth.Resolve(ctx, PathClassGeneral, "bogus-token")
		require.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("near-expiry token is extended", func(t *testing.T) {
		clock.Advance(6*24*time.Hour + 18*time.Hour) // 6h remaining

		_, err := auth.Resolve(ctx, PathClassGeneral, tok.Token)
		require.NoError(t, err)

		stored, err := st.SessionTokens().GetSessionTokenByValue(ctx, tok.Token)
		require.NoError(t, err)
		require.WithinDuration(t, clock.now.Add(7*24*time.Hour), stored.ExpiresAt, time.Second)
	})

	t.Run("expired token", func(t *testing.T) {
		clock.Advance(8 * 24 * time.Hour)
		_, err := auth.Resolve(ctx, PathClassGeneral, tok.Token)
		require.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestResolveGeneralSigned(t *testing.T) {
	ctx := context.Background()
	auth, st, _ := newAuthFixture(t, "secret")
	user := createUser(t, st, domain.User{Username: "bob", PasswordHash: "x", IsAdmin: true, Active: true})

	token, err := auth.Signed.Issue(user.ID, user.Username, user.IsAdmin, time.Now())
	require.NoError(t, err)

	t.Run("valid signed token", func(t *testing.T) {
		p, err := auth.Resolve(ctx, PathClassGeneral, token)
		require.NoError(t, err)
		require.Equal(t, user.ID, p.UserID)
		require.Equal(t, "bob", p.Username)
		require.True(t, p.IsAdmin)
	})

	t.Run("expired signed token", func(t *testing.T) {
		old, err := auth.Signed.Issue(user.ID, user.Username, false, time.Now().Add(-48*time.Hour))
		require.NoError(t, err)

		_, err = auth.Resolve(ctx, PathClassGeneral, old)
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("unknown subject", func(t *testing.T) {
		ghost, err := auth.Signed.Issue(99999, "ghost", false, time.Now())
		require.NoError(t, err)

		_, err = auth.Resolve(ctx, PathClassGeneral, ghost)
		require.ErrorIs(t, err, ErrInvalidCredential)
	})
}

func TestResolveWrongSecretNeverTouchesOpaqueStore(t *testing.T) {
	ctx := context.Background()
	auth, st, _ := newAuthFixture(t, "right-secret")
	user := createUser(t, st, domain.User{Username: "carol", PasswordHash: "x", Active: true})

	// Token signed under a different secret, e.g. a stale deployment.
	foreign := jwtx.NewManager("wrong-secret", "deskapi", 24*time.Hour)
	forged, err := foreign.Issue(user.ID, user.Username, false, time.Now())
	require.NoError(t, err)

	counting := &countingStore{Store: st}
	auth.Store = counting
	auth.Tokens = &TokenService{Store: counting, TTL: 7 * 24 * time.Hour}

	_, err = auth.Resolve(ctx, PathClassGeneral, forged)
	require.ErrorIs(t, err, ErrInvalidCredential)
	require.Zero(t, counting.lookups, "signature failure must not fall through to the session store")
}

func TestResolveSignedDisabled(t *testing.T) {
	// Without a secret, JWS-shaped credentials take the opaque path.
	ctx := context.Background()
	auth, _, _ := newAuthFixture(t, "")

	_, err := auth.Resolve(ctx, PathClassGeneral, "aaa.bbb.ccc")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestResolveAdmin(t *testing.T) {
	ctx := context.Background()
	auth, st, _ := newAuthFixture(t, "secret")
	admin := createUser(t, st, domain.User{Username: "root", PasswordHash: "x", IsAdmin: true, Active: true})
	regular := createUser(t, st, domain.User{Username: "pleb", PasswordHash: "x", Active: true})

	adminTok, err := auth.Tokens.Issue(ctx, admin.ID, "", "")
	require.NoError(t, err)
	regularTok, err := auth.Tokens.Issue(ctx, regular.ID, "", "")
	require.NoError(t, err)

	t.Run("admin token accepted", func(t *testing.T) {
		p, err := auth.Resolve(ctx, PathClassAdmin, adminTok.Token)
		require.NoError(t, err)
		require.True(t, p.IsAdmin)
	})

	t.Run("valid token of non-admin denied", func(t *testing.T) {
		_, err := auth.Resolve(ctx, PathClassAdmin, regularTok.Token)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("signed tokens are not accepted on admin paths", func(t *testing.T) {
		signed, err := auth.Signed.Issue(admin.ID, admin.Username, true, time.Now())
		require.NoError(t, err)

		_, err = auth.Resolve(ctx, PathClassAdmin, signed)
		require.ErrorIs(t, err, ErrInvalidCredential)
	})
}

func TestResolveInactiveAccount(t *testing.T) {
	ctx := context.Background()
	auth, st, _ := newAuthFixture(t, "secret")
	inactive := createUser(t, st, domain.User{Username: "frozen", PasswordHash: "x", Active: false})

	opaque, err := auth.Tokens.Issue(ctx, inactive.ID, "", "")
	require.NoError(t, err)
	signed, err := auth.Signed.Issue(inactive.ID, inactive.Username, false, time.Now())
	require.NoError(t, err)

	t.Run("opaque path", func(t *testing.T) {
		_, err := auth.Resolve(ctx, PathClassGeneral, opaque.Token)
		require.ErrorIs(t, err, ErrAccountInactive)
	})

	t.Run("signed path", func(t *testing.T) {
		_, err := auth.Resolve(ctx, PathClassGeneral, signed)
		require.ErrorIs(t, err, ErrAccountInactive)
	})
}
