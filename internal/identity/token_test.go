package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestUserID(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	id, ok := UserID(token)
	require.True(t, ok)
	assert.Equal(t, "user-42", id)
}

func TestUserIDMissingSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	_, ok := UserID(token)
	assert.False(t, ok)
}

func TestUserIDGarbage(t *testing.T) {
	_, ok := UserID("not-a-jwt")
	assert.False(t, ok)
}

func TestExpired(t *testing.T) {
	fresh := signToken(t, jwt.MapClaims{
		"sub": "u", "exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.False(t, Expired(fresh))

	stale := signToken(t, jwt.MapClaims{
		"sub": "u", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	assert.True(t, Expired(stale))
}

func TestExpiredWithoutClaim(t *testing.T) {
	// No exp claim and unparseable tokens are both treated as expired so the
	// client falls back to anonymous rather than sending a doomed credential.
	noExp := signToken(t, jwt.MapClaims{"sub": "u"})
	assert.True(t, Expired(noExp))
	assert.True(t, Expired("garbage"))
}
