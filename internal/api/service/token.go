package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deskbridge/deskapi/internal/api/domain"
	"github.com/deskbridge/deskapi/internal/api/store"
	"github.com/deskbridge/deskapi/pkg/cryptox"
	"github.com/deskbridge/deskapi/pkg/slogx"
)

const (
	// DefaultTokenTTL is the session token lifetime when none is configured.
	DefaultTokenTTL = 7 * 24 * time.Hour

	// RefreshWindow is how close to expiry a token must be before validation
	// extends it in place.
	RefreshWindow = 24 * time.Hour
)

var (
	ErrTokenNotFound = errors.New("token_not_found")
	ErrTokenExpired  = errors.New("token_expired")
)

// TokenService manages the opaque session token lifecycle. Token values are
// random and carry no meaning; everything else lives in the store.
type TokenService struct {
	Store store.Store
	TTL   time.Duration

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

func (s *TokenService) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultTokenTTL
}

// Issue creates and persists a new session token for the user. A collision
// on the random value is retried once with a fresh value before giving up.
func (s *TokenService) Issue(ctx context.Context, userID int64, deviceID, deviceUUID string) (domain.SessionToken, error) {
	log := slogx.FromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		value, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return domain.SessionToken{}, fmt.Errorf("generate session token: %w", err)
		}

		tok := domain.SessionToken{
			UserID:     userID,
			DeviceID:   deviceID,
			DeviceUUID: deviceUUID,
			Token:      value,
			ExpiresAt:  s.clock().Add(s.ttl()),
		}

		id, err := s.Store.SessionTokens().CreateSessionToken(ctx, tok)
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("session token collision, retrying", "user_id", userID)
			lastErr = err
			continue
		}
		if err != nil {
			return domain.SessionToken{}, fmt.Errorf("persist session token: %w", err)
		}

		tok.ID = id
		log.Info("session token issued", "user_id", userID, "token_id", id, "expires_at", tok.ExpiresAt)
		return tok, nil
	}

	return domain.SessionToken{}, fmt.Errorf("persist session token: %w", lastErr)
}

// Validate looks up a token by value. Expired tokens are reported as
// ErrTokenExpired but left in the store for the sweeper to remove.
func (s *TokenService) Validate(ctx context.Context, value string) (domain.SessionToken, error) {
	tok, err := s.Store.SessionTokens().GetSessionTokenByValue(ctx, value)
	if errors.Is(err, store.ErrNotFound) {
		return domain.SessionToken{}, ErrTokenNotFound
	}
	if err != nil {
		return domain.SessionToken{}, fmt.Errorf("lookup session token: %w", err)
	}

	if tok.Expired(s.clock()) {
		return domain.SessionToken{}, ErrTokenExpired
	}

	return tok, nil
}

// RefreshIfNearExpiry extends the token in place when it expires within
// RefreshWindow. The token value never changes and the expiry never moves
// backwards. Far from expiry this is a no-op.
func (s *TokenService) RefreshIfNearExpiry(ctx context.Context, tok domain.SessionToken) (domain.SessionToken, error) {
	now := s.clock()
	if tok.ExpiresAt.After(now.Add(RefreshWindow)) {
		return tok, nil
	}

	newExpiry := now.Add(s.ttl())
	if newExpiry.Before(tok.ExpiresAt) {
		return tok, nil
	}

	if err := s.Store.SessionTokens().UpdateSessionTokenExpiry(ctx, tok.ID, newExpiry); err != nil {
		return tok, fmt.Errorf("refresh session token: %w", err)
	}

	slogx.FromContext(ctx).Debug("session token refreshed",
		"token_id", tok.ID, "expires_at", newExpiry)

	tok.ExpiresAt = newExpiry
	return tok, nil
}

// Revoke deletes a token by value. Revoking an unknown token succeeds.
func (s *TokenService) Revoke(ctx context.Context, value string) error {
	if err := s.Store.SessionTokens().DeleteSessionTokenByValue(ctx, value); err != nil {
		return fmt.Errorf("revoke session token: %w", err)
	}
	return nil
}

// RevokeAllForUser deletes every session token belonging to the user, e.g.
// after a password change.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID int64) error {
	if err := s.Store.SessionTokens().DeleteSessionTokensByUserID(ctx, userID); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	slogx.FromContext(ctx).Info("all sessions revoked", "user_id", userID)
	return nil
}
