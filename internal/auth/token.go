package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry returns the expiry time of a stored access token without
// verifying its signature; only the server holds the key. The zero time is
// returned for tokens that are not parseable JWTs or carry no expiry.
func TokenExpiry(token string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// TokenExpired reports whether a stored token is already past its expiry.
// Opaque or expiry-less tokens are treated as live; the server has the
// final word either way, this only lets the session skip a silent re-auth
// that is certain to fail.
func TokenExpired(token string) bool {
	exp := TokenExpiry(token)
	if exp.IsZero() {
		return false
	}
	return time.Now().After(exp)
}
