// Package auth provides credential refresh collaborators for the session
// layer.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-apiclient/core"
)

const (
	grantTypeRefreshToken     = "refresh_token"
	maxTokenResponseBodyBytes = 1 << 20
	defaultTokenTimeout       = 15 * time.Second
)

type OAuth2RefresherConfig struct {
	TokenURL           string
	ClientID           string
	ClientSecret       string
	ClientSecretInBody bool
	DefaultScopes      []string
	RequestTimeout     time.Duration
	// TokenTTL applies when the endpoint reports no expires_in and the access
	// token carries no exp claim.
	TokenTTL time.Duration
	Now      func() time.Time
}

// OAuth2Refresher exchanges refresh tokens at an OAuth2 token endpoint.
type OAuth2Refresher struct {
	cfg    OAuth2RefresherConfig
	client core.HTTPDoer
}

type RefresherOption func(*OAuth2Refresher)

func WithHTTPClient(client core.HTTPDoer) RefresherOption {
	return func(r *OAuth2Refresher) {
		if client != nil {
			r.client = client
		}
	}
}

func NewOAuth2Refresher(cfg OAuth2RefresherConfig, opts ...RefresherOption) (*OAuth2Refresher, error) {
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	if cfg.TokenURL == "" {
		return nil, core.NewRefreshError(nil, "auth: token url is required", nil)
	}
	if parsed, err := url.Parse(cfg.TokenURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, core.NewRefreshError(err, "auth: token url must be absolute", map[string]any{"token_url": cfg.TokenURL})
	}
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.DefaultScopes = normalizeScopes(cfg.DefaultScopes)
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTokenTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	refresher := &OAuth2Refresher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(refresher)
		}
	}
	return refresher, nil
}

// NewOAuth2RefresherFromConfig builds a refresher from the refresh section of
// the client configuration.
func NewOAuth2RefresherFromConfig(cfg core.RefreshConfig, opts ...RefresherOption) (*OAuth2Refresher, error) {
	return NewOAuth2Refresher(OAuth2RefresherConfig{
		TokenURL:           cfg.TokenURL,
		ClientID:           cfg.ClientID,
		ClientSecret:       cfg.ClientSecret,
		ClientSecretInBody: cfg.ClientSecretInBody,
	}, opts...)
}

// Refresh implements core.CredentialRefresher. A response without a refresh
// token keeps the one that was presented.
func (r *OAuth2Refresher) Refresh(ctx context.Context, refreshToken string, scopes []string) (core.TokenState, error) {
	if r == nil {
		return core.TokenState{}, core.NewRefreshError(nil, "auth: oauth2 refresher is nil", nil)
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return core.TokenState{}, core.NewRefreshError(nil, "auth: refresh token is required", nil)
	}
	requested := normalizeScopes(scopes)
	if len(requested) == 0 {
		requested = append([]string(nil), r.cfg.DefaultScopes...)
	}

	form := url.Values{}
	form.Set("grant_type", grantTypeRefreshToken)
	form.Set("refresh_token", refreshToken)
	if len(requested) > 0 {
		form.Set("scope", strings.Join(requested, " "))
	}

	payload, err := r.fetchToken(ctx, form)
	if err != nil {
		return core.TokenState{}, err
	}

	next := core.TokenState{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		Scopes:       normalizeScopes(parseScopeList(payload.Scope)),
	}
	if next.RefreshToken == "" {
		next.RefreshToken = refreshToken
	}
	if len(next.Scopes) == 0 {
		next.Scopes = requested
	}
	next.ExpiresAt = r.resolveExpiresAt(payload.ExpiresIn, payload.AccessToken)
	return next, nil
}

type tokenEndpointPayload struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	Scope            string
	ExpiresIn        int64
	ErrorCode        string
	ErrorDescription string
}

func (r *OAuth2Refresher) fetchToken(ctx context.Context, form url.Values) (tokenEndpointPayload, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.cfg.ClientID != "" {
		form.Set("client_id", r.cfg.ClientID)
	}
	if r.cfg.ClientSecretInBody && r.cfg.ClientSecret != "" {
		form.Set("client_secret", r.cfg.ClientSecret)
	}

	requestCtx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, r.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenEndpointPayload{}, core.NewRefreshError(err, "auth: build token request", nil)
	}
	req.Header.Set(core.HeaderContentType, "application/x-www-form-urlencoded")
	req.Header.Set(core.HeaderAccept, "application/json")
	if !r.cfg.ClientSecretInBody && r.cfg.ClientSecret != "" {
		req.SetBasicAuth(r.cfg.ClientID, r.cfg.ClientSecret)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return tokenEndpointPayload{}, core.NewRefreshError(err, "auth: token request failed", nil)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxTokenResponseBodyBytes+1))
	if err != nil {
		return tokenEndpointPayload{}, core.NewRefreshError(err, "auth: read token response", nil)
	}
	if len(body) > maxTokenResponseBodyBytes {
		return tokenEndpointPayload{}, core.NewRefreshError(nil, fmt.Sprintf("auth: token response exceeds %d bytes", maxTokenResponseBodyBytes), nil)
	}

	payload, parseErr := parseTokenPayload(body, res.Header.Get(core.HeaderContentType))
	meta := map[string]any{"status_code": res.StatusCode}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return tokenEndpointPayload{}, core.NewRefreshError(nil, "auth: token endpoint error: "+describeTokenError(payload), meta)
	}
	if parseErr != nil {
		return tokenEndpointPayload{}, core.NewRefreshError(parseErr, "auth: decode token response", meta)
	}
	if payload.ErrorCode != "" {
		return tokenEndpointPayload{}, core.NewRefreshError(nil, "auth: token endpoint error: "+describeTokenError(payload), meta)
	}
	if payload.AccessToken == "" {
		return tokenEndpointPayload{}, core.NewRefreshError(nil, "auth: token endpoint response missing access token", meta)
	}
	return payload, nil
}

func (r *OAuth2Refresher) resolveExpiresAt(expiresIn int64, accessToken string) *time.Time {
	if expiresIn > 0 {
		expiresAt := r.cfg.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
		return &expiresAt
	}
	if expiresAt, ok := AccessTokenExpiry(accessToken); ok {
		return &expiresAt
	}
	if r.cfg.TokenTTL > 0 {
		expiresAt := r.cfg.Now().UTC().Add(r.cfg.TokenTTL)
		return &expiresAt
	}
	return nil
}

func describeTokenError(payload tokenEndpointPayload) string {
	if payload.ErrorDescription != "" {
		return payload.ErrorDescription
	}
	if payload.ErrorCode != "" {
		return payload.ErrorCode
	}
	return "unknown error"
}

func parseTokenPayload(body []byte, contentType string) (tokenEndpointPayload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.Contains(contentType, "json"):
		return parseTokenPayloadJSON(body)
	case strings.Contains(contentType, "x-www-form-urlencoded"), strings.Contains(contentType, "text/plain"):
		return parseTokenPayloadForm(body)
	}
	if payload, err := parseTokenPayloadJSON(body); err == nil {
		return payload, nil
	}
	return parseTokenPayloadForm(body)
}

func parseTokenPayloadJSON(body []byte) (tokenEndpointPayload, error) {
	if strings.TrimSpace(string(body)) == "" {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return tokenEndpointPayload{}, err
	}
	return tokenEndpointPayload{
		AccessToken:      readAnyString(decoded["access_token"]),
		TokenType:        readAnyString(decoded["token_type"]),
		RefreshToken:     readAnyString(decoded["refresh_token"]),
		Scope:            readAnyString(decoded["scope"]),
		ExpiresIn:        readAnyInt64(decoded["expires_in"]),
		ErrorCode:        readAnyString(decoded["error"]),
		ErrorDescription: readAnyString(decoded["error_description"]),
	}, nil
}

func parseTokenPayloadForm(body []byte) (tokenEndpointPayload, error) {
	if strings.TrimSpace(string(body)) == "" {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	expiresIn, _ := strconv.ParseInt(strings.TrimSpace(values.Get("expires_in")), 10, 64)
	return tokenEndpointPayload{
		AccessToken:      strings.TrimSpace(values.Get("access_token")),
		TokenType:        strings.TrimSpace(values.Get("token_type")),
		RefreshToken:     strings.TrimSpace(values.Get("refresh_token")),
		Scope:            strings.TrimSpace(values.Get("scope")),
		ExpiresIn:        expiresIn,
		ErrorCode:        strings.TrimSpace(values.Get("error")),
		ErrorDescription: strings.TrimSpace(values.Get("error_description")),
	}, nil
}

func parseScopeList(value string) []string {
	return strings.Fields(strings.ReplaceAll(value, ",", " "))
}

func normalizeScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	seen := map[string]struct{}{}
	for _, scope := range scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		out = append(out, scope)
	}
	return out
}

func readAnyString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func readAnyInt64(value any) int64 {
	switch typed := value.(type) {
	case float64:
		return int64(typed)
	case json.Number:
		parsed, _ := typed.Int64()
		return parsed
	case string:
		parsed, _ := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		return parsed
	default:
		return 0
	}
}
