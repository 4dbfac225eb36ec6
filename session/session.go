// Package session issues authenticated requests and recovers from expired
// credentials and server-signaled force updates.
package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/transport"
)

// Session builds request parameters from call arguments and the shared
// session state and dispatches them through a Sender. It keeps no copy of
// the session state between calls.
type Session struct {
	sender    *transport.Sender
	state     *core.SessionState
	refresher core.CredentialRefresher
	reloader  core.Reloader
	cfg       core.Config
	env       core.Environment
	observer  *core.Observer
}

type Option func(*Session)

func WithConfig(cfg core.Config) Option {
	return func(s *Session) {
		s.cfg = cfg
	}
}

func WithRefresher(refresher core.CredentialRefresher) Option {
	return func(s *Session) {
		s.refresher = refresher
	}
}

// WithReloader sets the reload side effect of a force update. It only runs in
// the hosted environment.
func WithReloader(reloader core.Reloader) Option {
	return func(s *Session) {
		if reloader != nil {
			s.reloader = reloader
		}
	}
}

func WithObserver(observer *core.Observer) Option {
	return func(s *Session) {
		if observer != nil {
			s.observer = observer
		}
	}
}

func New(sender *transport.Sender, state *core.SessionState, opts ...Option) (*Session, error) {
	if sender == nil || sender.Transport() == nil {
		return nil, core.NewInternalError("session: sender with a transport is required", nil)
	}
	if state == nil || state.Store() == nil {
		return nil, core.NewInternalError("session: session state with a credential store is required", nil)
	}
	s := &Session{
		sender:   sender,
		state:    state,
		reloader: core.NopReloader{},
		cfg:      core.DefaultConfig(),
		env:      sender.Transport().Environment(),
		observer: core.NewObserver(nil, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Config() core.Config {
	return s.cfg
}

func (s *Session) Environment() core.Environment {
	return s.env
}

func (s *Session) State() *core.SessionState {
	return s.state
}

// Request runs one logical call and blocks until it settles. A 401 with a
// stored refresh token triggers one refresh and one retry. After a failed
// refresh the original failure is returned.
func (s *Session) Request(ctx context.Context, args Args) (core.Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := s.build(ctx, args)
	if err != nil {
		return core.Outcome{}, err
	}
	return s.run(ctx, args, opts)
}

// RequestAsync builds the request synchronously, so build errors surface
// before any I/O, and runs the rest of the call in the background.
func (s *Session) RequestAsync(ctx context.Context, args Args) (*core.Pending, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := s.build(ctx, args)
	if err != nil {
		return nil, err
	}
	return core.Go(ctx, func(ctx context.Context) (core.Outcome, error) {
		return s.run(ctx, args, opts)
	}), nil
}

func (s *Session) run(ctx context.Context, args Args, opts transport.SendOptions) (core.Outcome, error) {
	startedAt := time.Now()
	outcome, err := s.dispatch(ctx, opts)
	retried := false
	if failure, ok := core.AsFailure(err); ok && failure.StatusCode() == s.cfg.Refresh.StatusCode {
		outcome, retried, err = s.recoverUnauthorized(ctx, args, outcome, err)
	}

	s.settle(args.Callbacks, outcome, err)
	s.observer.Observe(ctx, startedAt, core.OperationRequest, err, map[string]any{
		"method":      opts.Method,
		"url":         opts.URL,
		"status_code": outcome.StatusCode,
		"environment": string(s.env),
		"retried":     retried,
	})
	return outcome, err
}

// recoverUnauthorized refreshes credentials and retries once. Refresh
// failures are logged and collapse into the original failure. Stream payloads
// cannot be replayed, so they get the refresh but not the retry.
func (s *Session) recoverUnauthorized(ctx context.Context, args Args, original core.Outcome, originalErr error) (core.Outcome, bool, error) {
	tokens, err := s.state.Tokens(ctx)
	if err != nil || !tokens.HasRefreshToken() {
		s.observer.Debug(ctx, "session: no refresh token available", map[string]any{
			"status_code": original.StatusCode,
			"has_tokens":  err == nil && tokens.HasAccessToken(),
		})
		return original, false, originalErr
	}
	if err := s.refresh(ctx, tokens); err != nil {
		s.observer.Warn(ctx, "session: refresh failed, returning original failure", map[string]any{
			"status_code": original.StatusCode,
			"error":       err.Error(),
		})
		return original, false, originalErr
	}
	if _, ok := args.Data.(io.Reader); ok {
		s.observer.Warn(ctx, "session: stream payload consumed by first attempt, not retrying", map[string]any{
			"status_code": original.StatusCode,
			"url":         args.URL,
		})
		return original, false, originalErr
	}
	opts, err := s.build(ctx, args)
	if err != nil {
		s.observer.Warn(ctx, "session: rebuild after refresh failed", map[string]any{"error": err.Error()})
		return original, false, originalErr
	}
	outcome, err := s.dispatch(ctx, opts)
	return outcome, true, err
}

// dispatch sends one attempt and applies the force update protocol.
func (s *Session) dispatch(ctx context.Context, opts transport.SendOptions) (core.Outcome, error) {
	outcome, err := s.sender.Send(ctx, opts)
	if err == nil {
		if storeErr := s.state.SetForceUpdateRetries(ctx, 0); storeErr != nil {
			return outcome, storeErr
		}
		return outcome, nil
	}
	failure, ok := core.AsFailure(err)
	if !ok || failure.StatusCode() != s.cfg.ForceUpdate.StatusCode || !s.isForceUpdate(outcome) {
		return outcome, err
	}
	if storeErr := s.handleForceUpdate(ctx); storeErr != nil {
		return outcome, errors.Join(err, storeErr)
	}
	return outcome, err
}

func (s *Session) handleForceUpdate(ctx context.Context) error {
	startedAt := time.Now()
	retries, err := s.state.ForceUpdateRetries(ctx)
	if err != nil {
		return err
	}
	fields := map[string]any{
		"retries":     retries,
		"max_retries": s.cfg.ForceUpdate.MaxRetries,
		"environment": string(s.env),
	}
	if retries >= s.cfg.ForceUpdate.MaxRetries {
		fields["exhausted"] = true
		s.observer.Observe(ctx, startedAt, core.OperationForceUpdate, nil, fields)
		return nil
	}
	retries++
	fields["retries"] = retries
	if err := s.state.SetForceUpdateRetries(ctx, retries); err != nil {
		s.observer.Observe(ctx, startedAt, core.OperationForceUpdate, err, fields)
		return err
	}
	var reloadErr error
	if s.env == core.EnvironmentHosted {
		reloadErr = s.reloader.Reload(ctx)
	}
	s.observer.Observe(ctx, startedAt, core.OperationForceUpdate, reloadErr, fields)
	return reloadErr
}

func (s *Session) isForceUpdate(outcome core.Outcome) bool {
	marker := strings.TrimSpace(s.cfg.ForceUpdate.Marker)
	if marker == "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(outcome.StatusText), marker) {
		return true
	}
	return strings.Contains(string(outcome.Body), marker)
}

// Refresh exchanges the stored refresh token for new credentials and
// persists them.
func (s *Session) Refresh(ctx context.Context) (core.TokenState, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tokens, err := s.state.Tokens(ctx)
	if err != nil {
		return core.TokenState{}, err
	}
	if !tokens.HasRefreshToken() {
		return core.TokenState{}, core.NewRefreshError(nil, "session: no refresh token stored", nil)
	}
	if err := s.refresh(ctx, tokens); err != nil {
		return core.TokenState{}, err
	}
	return s.state.Tokens(ctx)
}

func (s *Session) refresh(ctx context.Context, current core.TokenState) error {
	startedAt := time.Now()
	fields := map[string]any{"scopes": strings.Join(current.Scopes, " ")}
	if s.refresher == nil {
		err := core.NewRefreshError(nil, "session: no credential refresher configured", nil)
		s.observer.Observe(ctx, startedAt, core.OperationRefresh, err, fields)
		return err
	}
	next, err := s.refresher.Refresh(ctx, current.RefreshToken, current.Scopes)
	if err == nil && !next.HasAccessToken() {
		err = core.NewRefreshError(nil, "session: refresh returned no access token", nil)
	}
	if err != nil {
		s.observer.Observe(ctx, startedAt, core.OperationRefresh, err, fields)
		return err
	}
	if !next.HasRefreshToken() {
		next.RefreshToken = current.RefreshToken
	}
	if len(next.Scopes) == 0 {
		next.Scopes = current.Scopes
	}
	err = s.state.SetTokens(ctx, next)
	s.observer.Observe(ctx, startedAt, core.OperationRefresh, err, fields)
	return err
}

// Tokens returns the stored credentials.
func (s *Session) Tokens(ctx context.Context) (core.TokenState, error) {
	return s.state.Tokens(ctx)
}

// ForceUpdateRetries returns the consecutive force update count.
func (s *Session) ForceUpdateRetries(ctx context.Context) (int, error) {
	return s.state.ForceUpdateRetries(ctx)
}

func (s *Session) ResetForceUpdate(ctx context.Context) error {
	return s.state.SetForceUpdateRetries(ctx, 0)
}

func (s *Session) settle(callbacks core.Callbacks, outcome core.Outcome, err error) {
	switch {
	case err == nil:
		if callbacks.OnSuccess != nil {
			callbacks.OnSuccess(outcome.Data, outcome.StatusCode, outcome.Handle)
		}
	case outcome.Kind == core.OutcomeFailure:
		if callbacks.OnError != nil {
			callbacks.OnError(err, outcome.StatusCode, outcome.Handle)
		}
	}
}
