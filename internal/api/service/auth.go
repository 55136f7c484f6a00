package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deskbridge/deskapi/internal/api/domain"
	"github.com/deskbridge/deskapi/internal/api/store"
	"github.com/deskbridge/deskapi/pkg/jwtx"
	"github.com/deskbridge/deskapi/pkg/slogx"
)

// PathClass partitions the URL space into authentication policies.
type PathClass int

const (
	// PathClassPublic requires no credential at all.
	PathClassPublic PathClass = iota
	// PathClassGeneral accepts signed tokens (when enabled) and opaque
	// session tokens.
	PathClassGeneral
	// PathClassAdmin accepts only opaque session tokens belonging to
	// admin accounts.
	PathClassAdmin
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidCredential = errors.New("invalid_credential")
	ErrAccountInactive   = errors.New("account_inactive")
	ErrPermissionDenied  = errors.New("permission_denied")
)

// AuthService resolves a raw credential into a Principal under the policy of
// a path class.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
	Signed *jwtx.Manager
}

// credentialVerifier turns one kind of credential into a principal.
// Signed and opaque tokens implement the same shape so Resolve can stay
// policy-only.
type credentialVerifier interface {
	verify(ctx context.Context, credential string) (domain.Principal, error)
}

// Resolve authenticates credential under the given path class.
//
// Admin paths only ever consult the opaque store. On general paths a
// credential shaped like a compact JWS is decided entirely by signature
// verification when signed mode is on; a bad signature is final and the
// opaque store is never consulted. All other credentials take the opaque
// path, which also extends tokens close to expiry.
func (s *AuthService) Resolve(ctx context.Context, class PathClass, credential string) (domain.Principal, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Principal{}, ErrUnauthenticated
	}

	var v credentialVerifier
	switch class {
	case PathClassAdmin:
		v = opaqueVerifier{tokens: s.Tokens, users: s.Store.Users()}
	case PathClassGeneral:
		if s.signedEnabled() && jwtx.IsCompactJWS(credential) {
			v = signedVerifier{manager: s.Signed, users: s.Store.Users()}
		} else {
			v = opaqueVerifier{tokens: s.Tokens, users: s.Store.Users(), refresh: true}
		}
	default:
		return domain.Principal{}, ErrUnauthenticated
	}

	p, err := v.verify(ctx, credential)
	if err != nil {
		return domain.Principal{}, err
	}

	if !p.Active {
		return domain.Principal{}, ErrAccountInactive
	}
	if class == PathClassAdmin && !p.IsAdmin {
		return domain.Principal{}, ErrPermissionDenied
	}

	return p, nil
}

func (s *AuthService) signedEnabled() bool {
	return s.Signed != nil && s.Signed.Enabled()
}

// signedVerifier resolves HS256 tokens. The user record still backs the
// principal so that disabled accounts are caught even with a valid token.
type signedVerifier struct {
	manager *jwtx.Manager
	users   store.Users
}

func (v signedVerifier) verify(ctx context.Context, credential string) (domain.Principal, error) {
	claims, err := v.manager.Verify(credential)
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return domain.Principal{}, ErrTokenExpired
	case err != nil:
		slogx.FromContext(ctx).Debug("signed token rejected", "reason", err)
		return domain.Principal{}, ErrInvalidCredential
	}

	userID, err := claims.UserID()
	if err != nil {
		return domain.Principal{}, ErrInvalidCredential
	}

	u, err := v.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Principal{}, ErrInvalidCredential
	}
	if err != nil {
		return domain.Principal{}, fmt.Errorf("lookup token subject: %w", err)
	}

	return domain.PrincipalOf(u), nil
}

// opaqueVerifier resolves session tokens from the store. When refresh is set
// a token close to expiry is extended as a side effect of validation.
type opaqueVerifier struct {
	tokens  *TokenService
	users   store.Users
	refresh bool
}

func (v opaqueVerifier) verify(ctx context.Context, credential string) (domain.Principal, error) {
	tok, err := v.tokens.Validate(ctx, credential)
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return domain.Principal{}, ErrInvalidCredential
	case errors.Is(err, ErrTokenExpired):
		return domain.Principal{}, ErrTokenExpired
	case err != nil:
		return domain.Principal{}, err
	}

	if v.refresh {
		if tok, err = v.tokens.RefreshIfNearExpiry(ctx, tok); err != nil {
			// A failed extension must not fail an otherwise valid request.
			slogx.FromContext(ctx).Warn("session token refresh failed", "token_id", tok.ID, "error", err)
		}
	}

	u, err := v.users.GetUserByID(ctx, tok.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Principal{}, ErrInvalidCredential
	}
	if err != nil {
		return domain.Principal{}, fmt.Errorf("lookup token owner: %w", err)
	}

	return domain.PrincipalOf(u), nil
}
