package domain

import "time"

// SessionToken is an opaque bearer credential stored server-side. The token
// value itself is random; validity lives entirely in the ExpiresAt column.
// Expired rows stay in place until the sweeper removes them.
type SessionToken struct {
	ID         int64
	UserID     int64
	DeviceID   string
	DeviceUUID string
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Expired reports whether the token is past its expiry at the given instant.
func (t SessionToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
