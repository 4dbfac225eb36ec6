package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-apiclient/core"
)

type tokenRequest struct {
	form     map[string]string
	user     string
	password string
	basic    bool
}

func tokenServer(t *testing.T, status int, contentType string, body string, captured *tokenRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if captured != nil {
			captured.form = map[string]string{}
			for key := range r.PostForm {
				captured.form[key] = r.PostForm.Get(key)
			}
			captured.user, captured.password, captured.basic = r.BasicAuth()
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOAuth2Refresher_RefreshJSONWithBasicAuth(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var captured tokenRequest
	server := tokenServer(t, http.StatusOK, "application/json",
		`{"access_token":"new-access","token_type":"Bearer","expires_in":3600,"scope":"read write"}`, &captured)

	refresher, err := NewOAuth2Refresher(OAuth2RefresherConfig{
		TokenURL:     server.URL,
		ClientID:     "client_1",
		ClientSecret: "secret_1",
		Now:          func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}

	tokens, err := refresher.Refresh(context.Background(), "refresh-1", []string{"read", "read", " write "})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if captured.form["grant_type"] != "refresh_token" || captured.form["refresh_token"] != "refresh-1" {
		t.Fatalf("unexpected grant form %#v", captured.form)
	}
	if captured.form["scope"] != "read write" || captured.form["client_id"] != "client_1" {
		t.Fatalf("unexpected scope or client id %#v", captured.form)
	}
	if _, ok := captured.form["client_secret"]; ok {
		t.Fatalf("expected client secret outside the body")
	}
	if !captured.basic || captured.user != "client_1" || captured.password != "secret_1" {
		t.Fatalf("expected basic auth credentials")
	}
	if tokens.AccessToken != "new-access" || tokens.RefreshToken != "refresh-1" {
		t.Fatalf("expected refresh token to be kept, got %#v", tokens)
	}
	if len(tokens.Scopes) != 2 || tokens.Scopes[0] != "read" || tokens.Scopes[1] != "write" {
		t.Fatalf("unexpected scopes %#v", tokens.Scopes)
	}
	if tokens.ExpiresAt == nil || !tokens.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", tokens.ExpiresAt)
	}
}

func TestOAuth2Refresher_RefreshFormWithSecretInBody(t *testing.T) {
	var captured tokenRequest
	server := tokenServer(t, http.StatusOK, "application/x-www-form-urlencoded",
		"access_token=form-access&refresh_token=refresh-2", &captured)

	refresher, err := NewOAuth2RefresherFromConfig(core.RefreshConfig{
		TokenURL:           server.URL,
		ClientID:           "client_2",
		ClientSecret:       "secret_2",
		ClientSecretInBody: true,
	})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	tokens, err := refresher.Refresh(context.Background(), "refresh-1", nil)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if captured.basic {
		t.Fatalf("expected no basic auth")
	}
	if captured.form["client_secret"] != "secret_2" {
		t.Fatalf("expected client secret in body")
	}
	if _, ok := captured.form["scope"]; ok {
		t.Fatalf("expected no scope parameter without scopes")
	}
	if tokens.AccessToken != "form-access" || tokens.RefreshToken != "refresh-2" {
		t.Fatalf("unexpected tokens %#v", tokens)
	}
	if tokens.ExpiresAt != nil {
		t.Fatalf("expected unknown expiry")
	}
}

func TestOAuth2Refresher_Failures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
	}{
		{name: "endpoint rejects", status: http.StatusBadRequest, contentType: "application/json", body: `{"error":"invalid_grant"}`},
		{name: "error in success body", status: http.StatusOK, contentType: "application/json", body: `{"error":"invalid_grant","error_description":"expired"}`},
		{name: "missing access token", status: http.StatusOK, contentType: "application/json", body: `{"token_type":"bearer"}`},
		{name: "unparseable", status: http.StatusOK, contentType: "application/json", body: `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := tokenServer(t, tt.status, tt.contentType, tt.body, nil)
			refresher, err := NewOAuth2Refresher(OAuth2RefresherConfig{TokenURL: server.URL})
			if err != nil {
				t.Fatalf("new refresher: %v", err)
			}
			if _, err := refresher.Refresh(context.Background(), "refresh", nil); !core.HasTextCode(err, core.ErrorTextRefreshFailed) {
				t.Fatalf("expected refresh error, got %v", err)
			}
		})
	}
}

func TestOAuth2Refresher_Validation(t *testing.T) {
	if _, err := NewOAuth2Refresher(OAuth2RefresherConfig{}); err == nil {
		t.Fatalf("expected missing token url error")
	}
	if _, err := NewOAuth2Refresher(OAuth2RefresherConfig{TokenURL: "/token"}); err == nil {
		t.Fatalf("expected relative token url error")
	}
	refresher, err := NewOAuth2Refresher(OAuth2RefresherConfig{TokenURL: "https://auth.example.com/token"})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	if _, err := refresher.Refresh(context.Background(), " ", nil); err == nil {
		t.Fatalf("expected missing refresh token error")
	}
}

func TestOAuth2Refresher_ExpiryFromJWTClaim(t *testing.T) {
	exp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	access := signedToken(t, exp)
	body, _ := json.Marshal(map[string]any{"access_token": access})
	server := tokenServer(t, http.StatusOK, "application/json", string(body), nil)

	refresher, err := NewOAuth2Refresher(OAuth2RefresherConfig{TokenURL: server.URL, TokenTTL: time.Minute})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	tokens, err := refresher.Refresh(context.Background(), "refresh", nil)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if tokens.ExpiresAt == nil || !tokens.ExpiresAt.Equal(exp) {
		t.Fatalf("expected exp claim expiry, got %v", tokens.ExpiresAt)
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
