// Package jwtx issues and verifies HS256-signed access tokens over a single
// shared secret. Signed tokens are an optional fast path next to the opaque
// session tokens; an empty secret disables the whole package.
package jwtx

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the signed token lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

var (
	ErrDisabled    = errors.New("jwtx: signing secret not configured")
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrUnsupported = errors.New("jwtx: unsupported token")
)

// Claims carried by a signed token. Subject holds the numeric user id in
// decimal form.
type Claims struct {
	jwt.RegisteredClaims

	Username string `json:"username,omitempty"`
	IsAdmin  bool   `json:"admin,omitempty"`
}

// UserID parses the subject claim back into a numeric user id.
func (c Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrMalformed
	}
	return id, nil
}

// Manager signs and verifies tokens with a single shared HMAC secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewManager builds a Manager. An empty secret yields a disabled manager:
// Enabled reports false and Issue/Verify return ErrDisabled.
func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m := &Manager{issuer: issuer, ttl: ttl}
	if secret != "" {
		m.secret = []byte(secret)
	}
	return m
}

// Enabled reports whether a signing secret is configured.
func (m *Manager) Enabled() bool { return len(m.secret) > 0 }

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a token for the given user valid from now until now+TTL.
func (m *Manager) Issue(userID int64, username string, isAdmin bool, now time.Time) (string, error) {
	if !m.Enabled() {
		return "", ErrDisabled
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username: username,
		IsAdmin:  isAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify parses and validates a signed token, returning its claims.
// Failures are mapped onto the package sentinels so callers can dispatch
// with errors.Is.
func (m *Manager) Verify(raw string) (Claims, error) {
	if !m.Enabled() {
		return Claims{}, ErrDisabled
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnsupported
		}
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	default:
		return ErrUnsupported
	}
}

// IsCompactJWS reports whether s has the shape of a compact JWS serialization
// (three dot-separated segments). Used to route credentials between signed
// and opaque verification without parsing.
func IsCompactJWS(s string) bool {
	return strings.Count(s, ".") == 2
}
