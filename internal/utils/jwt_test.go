package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestNewTokenRoundTrip(t *testing.T) {
	for _, purpose := range []Purpose{PurposeAccess, PurposeRefresh, PurposeEmailVerify, PurposePasswordReset} {
		signed, exp, err := NewToken(testSecret, "user@example.com", purpose, time.Hour)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), exp, 5*time.Second)

		subject, err := ParseToken(testSecret, signed, purpose)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", subject)
	}
}

func TestNewTokenUnique(t *testing.T) {
	// Two tokens minted back to back (same second, same claims) must still
	// differ, or refresh rotation would hand back the token it just replaced.
	a, _, err := NewToken(testSecret, "user@example.com", PurposeRefresh, time.Hour)
	require.NoError(t, err)
	b, _, err := NewToken(testSecret, "user@example.com", PurposeRefresh, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseTokenPurposeMismatch(t *testing.T) {
	signed, _, err := NewToken(testSecret, "user@example.com", PurposeEmailVerify, time.Hour)
	require.NoError(t, err)

	for _, wrong := range []Purpose{PurposeAccess, PurposeRefresh, PurposePasswordReset} {
		_, err := ParseToken(testSecret, signed, wrong)
		assert.ErrorIs(t, err, ErrTokenInvalid, "verify token must not be usable as %s", wrong)
	}
}

func TestParseTokenExpired(t *testing.T) {
	signed, _, err := NewToken(testSecret, "user@example.com", PurposeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, signed, PurposeAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseTokenWrongSecret(t *testing.T) {
	signed, _, err := NewToken(testSecret, "user@example.com", PurposeAccess, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", signed, PurposeAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseTokenGarbage(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := ParseToken(testSecret, raw, PurposeAccess)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}

func TestHashRefreshRaw(t *testing.T) {
	h1 := HashRefreshRaw("token-a")
	h2 := HashRefreshRaw("token-a")
	h3 := HashRefreshRaw("token-b")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // sha256 hex
}
