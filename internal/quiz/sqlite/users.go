package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"quiz-maker/internal/auth"
)

type userRow struct {
	UserID        string `db:"user_id"`
	Name          string `db:"name"`
	Email         string `db:"email"`
	PasswordHash  string `db:"password_hash"`
	IsAdmin       bool   `db:"is_admin"`
	CreatedAtUnix int64  `db:"created_at_unix"`
}

func (s *Store) CreateUser(ctx context.Context, user auth.User) error {
	_, err := s.db.NamedExecContext(
		ctx,
		`INSERT INTO users (user_id, name, email, password_hash, is_admin, created_at_unix)
		 VALUES (:user_id, :name, :email, :password_hash, :is_admin, :created_at_unix)`,
		userRow{
			UserID:        user.ID,
			Name:          user.Name,
			Email:         user.Email,
			PasswordHash:  user.PasswordHash,
			IsAdmin:       user.IsAdmin,
			CreatedAtUnix: toUnix(user.CreatedAt),
		},
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.getUser(ctx, `SELECT user_id, name, email, password_hash, is_admin, created_at_unix FROM users WHERE email = ?`, email)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (auth.User, error) {
	return s.getUser(ctx, `SELECT user_id, name, email, password_hash, is_admin, created_at_unix FROM users WHERE user_id = ?`, userID)
}

func (s *Store) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE email = ?`, isAdmin, email)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (auth.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, err
	}
	return auth.User{
		ID:           row.UserID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		IsAdmin:      row.IsAdmin,
		CreatedAt:    fromUnix(row.CreatedAtUnix),
	}, nil
}

func (s *Store) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO revoked_tokens (token_id, expires_at_unix) VALUES (?, ?)`,
		tokenID,
		toUnix(expiresAt),
	)
	return err
}

func (s *Store) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var found int
	err := s.db.GetContext(ctx, &found, `SELECT 1 FROM revoked_tokens WHERE token_id = ? LIMIT 1`, tokenID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) PurgeExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at_unix < ?`, toUnix(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
