package model

import "time"

// User represents a row in the `users` table. Handlers never serialize this
// struct directly; response DTOs live next to the handlers so the password
// hash and refresh token digest can't leak into a JSON body by accident.
//
// Fields:
//
//	ID               – primary key identifier of the user.
//	Email            – unique email address, stored lowercased.
//	Username         – display name chosen at signup.
//	PasswordHash     – bcrypt hashed password.
//	Avatar           – gravatar URL derived from the email (may be empty).
//	RefreshTokenHash – SHA-256 hex digest of the currently active refresh
//	                   token. Empty when no session is active or the token
//	                   was revoked. Overwritten on every login and rotation.
//	Confirmed        – whether the email address has been verified. Flips to
//	                   true exactly once and is never reset.
//	CreatedAt        – timestamp of creation.
//	UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64    // users.id
	Email            string    // users.email
	Username         string    // users.username
	PasswordHash     string    // users.password_hash
	Avatar           string    // users.avatar (nullable)
	RefreshTokenHash string    // users.refresh_token_hash (nullable)
	Confirmed        bool      // users.confirmed
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}
