package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/deskbridge/deskapi/internal/api/domain"
)

type usersRepo struct {
	db *sql.DB
}

const userColumns = `id, username, email, nickname, password_hash, is_admin, status, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	now := time.Now().UTC()

	status := 0
	if u.Active {
		status = 1
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, nickname, password_hash, is_admin, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.Nickname, u.PasswordHash, u.IsAdmin, status, now, now)
	if err != nil {
		return 0, mapConflict(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
	return err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u      domain.User
		status int
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Nickname, &u.PasswordHash,
		&u.IsAdmin, &status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Active = status == 1
	return u, nil
}
