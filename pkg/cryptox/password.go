package cryptox

import (
	"crypto/md5" //nolint:gosec // required for legacy hash compatibility
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacyHashLength is the length of an unsalted hex MD5 digest. Accounts
// imported from older deployments still carry these.
const legacyHashLength = 32

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("cryptox: password must not be empty")

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash. Stored
// values in legacy form (32 hex chars) are compared against the MD5 digest
// of the password, case-insensitively. Everything else goes through bcrypt.
// Malformed stored values simply fail verification.
func VerifyPassword(password, stored string) bool {
	if password == "" || stored == "" {
		return false
	}

	if IsLegacyHash(stored) {
		digest := LegacyDigest(password)
		return subtle.ConstantTimeCompare([]byte(digest), []byte(strings.ToLower(stored))) == 1
	}

	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// IsLegacyHash reports whether stored looks like a legacy unsalted MD5
// digest: exactly 32 hexadecimal characters. Callers use this to decide
// whether a hash should be upgraded after a successful verification.
func IsLegacyHash(stored string) bool {
	if len(stored) != legacyHashLength {
		return false
	}
	for i := 0; i < len(stored); i++ {
		c := stored[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// LegacyDigest returns the lowercase hex MD5 digest of password, matching
// the format the legacy scheme stored.
func LegacyDigest(password string) string {
	sum := md5.Sum([]byte(password)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
