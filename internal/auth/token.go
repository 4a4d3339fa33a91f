package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the expiry claim from a JWT without verifying the
// signature. The demo server signs with a key we never see; expiry is only
// used to decide when to refresh proactively.
func TokenExpiry(token string) (time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parsing token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading expiry claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiry claim")
	}
	return exp.Time, nil
}

// TokenFresh reports whether the token is still valid with at least the
// given margin left.
func TokenFresh(token string, margin time.Duration) bool {
	exp, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	return time.Until(exp) > margin
}
