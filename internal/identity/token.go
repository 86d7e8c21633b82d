package identity

// Claim inspection for the locally stored access token. The client never
// verifies the signature (that is the server's job); it only reads the
// subject to know which comments belong to the current user, and the expiry
// to avoid sending a token the server would reject anyway.

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserID extracts the subject claim from an access token. ok is false when
// the token cannot be parsed or has no subject.
func UserID(token string) (string, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

// Expired reports whether the token's exp claim is in the past. Tokens
// without a parseable expiry are treated as expired.
func Expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.Before(time.Now())
}
