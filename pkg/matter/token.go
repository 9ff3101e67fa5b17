package matter

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what can be read from a user token without verifying it.
type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ErrNoExpiry is returned when a token carries no exp claim.
var ErrNoExpiry = errors.New("matter: token has no expiry")

// InspectToken decodes the token's registered claims. The signature is not
// checked; the token is only ever verified by the Matter runtime.
func InspectToken(token string) (TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("matter: parse token: %w", err)
	}
	out := TokenClaims{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// TokenExpiry returns the token's exp claim.
func TokenExpiry(token string) (time.Time, error) {
	claims, err := InspectToken(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt.IsZero() {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt, nil
}
