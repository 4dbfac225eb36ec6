package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-apiclient/core"
)

func TestAccessTokenExpiry(t *testing.T) {
	exp := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	if got, ok := AccessTokenExpiry(signedToken(t, exp)); !ok || !got.Equal(exp) {
		t.Fatalf("expected %v, got %v (%v)", exp, got, ok)
	}
	if _, ok := AccessTokenExpiry("opaque-token"); ok {
		t.Fatalf("expected opaque token to have no expiry")
	}

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, ok := AccessTokenExpiry(noExp); ok {
		t.Fatalf("expected token without exp claim to have no expiry")
	}
}

func TestExpiresWithin(t *testing.T) {
	now := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	stored := now.Add(10 * time.Minute)
	tokens := core.TokenState{AccessToken: "opaque", ExpiresAt: &stored}

	if ExpiresWithin(tokens, now, 5*time.Minute) {
		t.Fatalf("expected token outside the window")
	}
	if !ExpiresWithin(tokens, now, 10*time.Minute) {
		t.Fatalf("expected token at the window edge")
	}
	if ExpiresWithin(core.TokenState{AccessToken: "opaque"}, now, time.Hour) {
		t.Fatalf("expected unknown expiry to never expire")
	}
	fromClaim := core.TokenState{AccessToken: signedToken(t, now.Add(time.Minute))}
	if !ExpiresWithin(fromClaim, now, 2*time.Minute) {
		t.Fatalf("expected claim expiry to be used")
	}
}
