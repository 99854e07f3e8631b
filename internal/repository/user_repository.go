package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/contacts-api/internal/model"
)

// UserRepo persists accounts in the 'users' table. The current refresh token
// digest lives on the user row: every login and rotation overwrites it
// (last-writer-wins), and clearing it revokes the session server-side.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,username,password_hash,avatar,refresh_token_hash,confirmed,created_at,updated_at"

// Create inserts a new unconfirmed user and returns its ID. The email is
// normalized to lowercase; a duplicate maps to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, username, passwordHash, avatar string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, avatar) VALUES (?,?,?,?)",
		email, username, passwordHash, avatar)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email. Missing rows surface as
// sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var (
		u       model.User
		avatar  sql.NullString
		refresh sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &avatar, &refresh, &u.Confirmed, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Avatar = avatar.String
	u.RefreshTokenHash = refresh.String
	return u, nil
}

// UpdateRefreshToken overwrites the stored refresh token digest for a user.
// An empty digest clears the column, revoking the active refresh token.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID uint64, tokenHash string) error {
	var v sql.NullString
	if tokenHash != "" {
		v = sql.NullString{String: tokenHash, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=?", v, userID)
	return err
}

// ConfirmEmail marks a user's email as verified. The flag only ever moves
// from false to true; re-confirming is a no-op at the SQL level.
func (r *UserRepo) ConfirmEmail(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET confirmed=1 WHERE id=?", userID)
	return err
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, userID)
	return err
}
