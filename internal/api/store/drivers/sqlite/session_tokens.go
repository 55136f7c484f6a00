package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/deskbridge/deskapi/internal/api/domain"
)

type sessionTokensRepo struct {
	db *sql.DB
}

const sessionTokenColumns = `id, user_id, device_id, device_uuid, token, expires_at, created_at, updated_at`

func (r *sessionTokensRepo) CreateSessionToken(ctx context.Context, t domain.SessionToken) (int64, error) {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO session_tokens (user_id, device_id, device_uuid, token, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.DeviceID, t.DeviceUUID, t.Token, t.ExpiresAt.UTC(), now, now)
	if err != nil {
		return 0, mapConflict(err)
	}
	return res.LastInsertId()
}

func (r *sessionTokensRepo) GetSessionTokenByValue(ctx context.Context, token string) (domain.SessionToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionTokenColumns+` FROM session_tokens WHERE token = ?`, token)

	var t domain.SessionToken
	err := row.Scan(
		&t.ID, &t.UserID, &t.DeviceID, &t.DeviceUUID, &t.Token,
		&t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.SessionToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *sessionTokensRepo) UpdateSessionTokenExpiry(ctx context.Context, id int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE session_tokens SET expires_at = ?, updated_at = ? WHERE id = ?`,
		expiresAt.UTC(), time.Now().UTC(), id)
	return err
}

func (r *sessionTokensRepo) DeleteSessionTokenByValue(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM session_tokens WHERE token = ?`, token)
	return err
}

func (r *sessionTokensRepo) DeleteSessionTokensByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM session_tokens WHERE user_id = ?`, userID)
	return err
}

func (r *sessionTokensRepo) DeleteExpiredSessionTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM session_tokens WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
