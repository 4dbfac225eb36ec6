package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-apiclient/core"
)

// AccessTokenExpiry returns the exp claim of a JWT access token. The
// signature is not verified; the value only schedules refreshes.
func AccessTokenExpiry(accessToken string) (time.Time, bool) {
	accessToken = strings.TrimSpace(accessToken)
	if strings.Count(accessToken, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.UTC(), true
}

// TokenExpiry returns the stored expiry of tokens, falling back to the exp
// claim of the access token.
func TokenExpiry(tokens core.TokenState) (time.Time, bool) {
	if tokens.ExpiresAt != nil && !tokens.ExpiresAt.IsZero() {
		return tokens.ExpiresAt.UTC(), true
	}
	return AccessTokenExpiry(tokens.AccessToken)
}

// ExpiresWithin reports whether tokens expire within window of now. Tokens
// with no known expiry never do.
func ExpiresWithin(tokens core.TokenState, now time.Time, window time.Duration) bool {
	expiresAt, ok := TokenExpiry(tokens)
	if !ok {
		return false
	}
	return !now.Add(window).Before(expiresAt)
}
