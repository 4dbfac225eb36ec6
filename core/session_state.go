package core

import (
	"context"
	"encoding/json"
	"strings"
)

const (
	KeyTokens             = "session.token"
	KeyTokenScopes        = "session.token_scopes"
	KeyForceUpdateRetries = "session.force_update_retries"
)

// SessionState reads and writes session data through a CredentialStore. It
// holds no copies; every accessor goes to the store.
type SessionState struct {
	store CredentialStore
}

func NewSessionState(store CredentialStore) *SessionState {
	return &SessionState{store: store}
}

func (s *SessionState) Store() CredentialStore {
	if s == nil {
		return nil
	}
	return s.store
}

// Tokens returns the current token bundle. A missing entry yields the zero
// TokenState. Scopes stored under their own key fill in when the bundle
// carries none.
func (s *SessionState) Tokens(ctx context.Context) (TokenState, error) {
	var state TokenState
	if _, err := s.read(ctx, KeyTokens, &state); err != nil {
		return TokenState{}, err
	}
	if len(state.Scopes) == 0 {
		scopes, err := s.Scopes(ctx)
		if err != nil {
			return TokenState{}, err
		}
		state.Scopes = scopes
	}
	return state, nil
}

func (s *SessionState) SetTokens(ctx context.Context, state TokenState) error {
	state.AccessToken = strings.TrimSpace(state.AccessToken)
	state.RefreshToken = strings.TrimSpace(state.RefreshToken)
	if err := s.write(ctx, KeyTokens, state); err != nil {
		return err
	}
	if len(state.Scopes) > 0 {
		return s.SetScopes(ctx, state.Scopes)
	}
	return nil
}

func (s *SessionState) ClearTokens(ctx context.Context) error {
	if s == nil || s.store == nil {
		return NewStoreError(nil, KeyTokens)
	}
	if err := s.store.Delete(ctx, KeyTokens); err != nil {
		return NewStoreError(err, KeyTokens)
	}
	return nil
}

func (s *SessionState) Scopes(ctx context.Context) ([]string, error) {
	var scopes []string
	if _, err := s.read(ctx, KeyTokenScopes, &scopes); err != nil {
		return nil, err
	}
	return scopes, nil
}

func (s *SessionState) SetScopes(ctx context.Context, scopes []string) error {
	normalized := make([]string, 0, len(scopes))
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
		normalized = append(normalized, scope)
	}
	return s.write(ctx, KeyTokenScopes, normalized)
}

// ForceUpdateRetries returns the consecutive force update count, 0 when unset.
func (s *SessionState) ForceUpdateRetries(ctx context.Context) (int, error) {
	var retries int
	if _, err := s.read(ctx, KeyForceUpdateRetries, &retries); err != nil {
		return 0, err
	}
	if retries < 0 {
		return 0, nil
	}
	return retries, nil
}

func (s *SessionState) SetForceUpdateRetries(ctx context.Context, retries int) error {
	if retries < 0 {
		retries = 0
	}
	return s.write(ctx, KeyForceUpdateRetries, retries)
}

func (s *SessionState) read(ctx context.Context, key string, target any) (bool, error) {
	if s == nil || s.store == nil {
		return false, NewStoreError(nil, key)
	}
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return false, NewStoreError(err, key)
	}
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, NewStoreError(err, key)
	}
	return true, nil
}

func (s *SessionState) write(ctx context.Context, key string, value any) error {
	if s == nil || s.store == nil {
		return NewStoreError(nil, key)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return NewStoreError(err, key)
	}
	if err := s.store.Set(ctx, key, payload); err != nil {
		return NewStoreError(err, key)
	}
	return nil
}
