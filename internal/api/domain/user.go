package domain

import "time"

// User is a server account. PasswordHash holds either a bcrypt hash or, for
// accounts imported from older deployments, an unsalted 32-hex MD5 digest.
type User struct {
	ID           int64
	Username     string
	Email        string
	Nickname     string
	PasswordHash string
	IsAdmin      bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the identity attached to a request after its credential has
// been resolved.
type Principal struct {
	UserID   int64
	Username string
	IsAdmin  bool
	Active   bool
}

// PrincipalOf derives the request principal from a user record.
func PrincipalOf(u User) Principal {
	return Principal{
		UserID:   u.ID,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
		Active:   u.Active,
	}
}
