package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"
	"crypto/sha256" // SHA-256 hashing for stored refresh token digests
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Purpose restricts which operation may consume a token. A token minted for
// one purpose is rejected everywhere else, so a confirmation link can never
// be replayed as a password-reset authorization and vice versa.
type Purpose string

const (
	PurposeAccess        Purpose = "access"
	PurposeRefresh       Purpose = "refresh"
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "password_reset"
)

// ErrTokenExpired and ErrTokenInvalid are the only failures ParseToken
// reports. Callers that want to distinguish an expired session from a forged
// or malformed token can, though the HTTP layer currently maps both to the
// same unauthorized response.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// tokenClaims is the claim set carried by every token this service issues:
// the registered sub/iat/exp plus the purpose tag.
type tokenClaims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// NewToken builds and signs an HS256 JWT for the given subject (the account
// email) with expiry = now + ttl. It returns the serialized token and its
// expiration time. Each token carries a random jti, so two tokens minted in
// the same second still serialize differently; refresh rotation relies on the
// new token never equaling the one it replaces.
func NewToken(secret, subject string, purpose Purpose, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := tokenClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        newJTI(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseToken verifies the signature and expiry of raw and checks that its
// purpose matches want. On success it returns the subject claim. Expired
// tokens yield ErrTokenExpired; everything else (bad signature, malformed
// input, wrong signing method, purpose mismatch, empty subject) yields
// ErrTokenInvalid.
func ParseToken(secret, raw string, want Purpose) (string, error) {
	var claims tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC before touching the key.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !tok.Valid || claims.Purpose != want || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

func newJTI() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// HashRefreshRaw returns the SHA-256 hex digest of a refresh token string.
// Only the digest is persisted on the user row; since the digest of two
// strings is equal exactly when the strings are, the stored-value match the
// refresh flow requires still holds while a stolen database row stays
// useless for refreshing sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
