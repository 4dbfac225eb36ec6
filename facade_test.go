package apiclient

import (
	"context"
	"testing"
	"time"

	sessioncommand "github.com/goliatone/go-apiclient/command"
	"github.com/goliatone/go-apiclient/core"
	sessionquery "github.com/goliatone/go-apiclient/query"
	"github.com/goliatone/go-apiclient/session"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, err := NewFacade(&stubFacadeSession{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.Send == nil || commands.Refresh == nil || commands.ResetForceUpdate == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.Fetch == nil || queries.TokenState == nil || queries.ForceUpdateRetries == nil {
		t.Fatalf("expected query handlers to be wired")
	}
	if facade.Session() == nil {
		t.Fatalf("expected session accessor")
	}
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected error for missing session")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	ctx := context.Background()
	expiresAt := time.Now().UTC().Add(time.Hour)
	svc := &stubFacadeSession{
		tokens: core.TokenState{
			AccessToken:  "access",
			RefreshToken: "refresh",
			Scopes:       []string{"profile"},
			ExpiresAt:    &expiresAt,
		},
		retries: 2,
	}
	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	if err := facade.Commands().Send.Execute(ctx, sessioncommand.SendMessage{
		Args: session.Args{URL: "/v1/items", Method: "DELETE"},
	}); err != nil {
		t.Fatalf("execute send command: %v", err)
	}
	if svc.lastArgs.URL != "/v1/items" || svc.lastArgs.Method != "DELETE" {
		t.Fatalf("unexpected send delegation: %#v", svc.lastArgs)
	}

	if _, err := facade.Queries().Fetch.Query(ctx, sessionquery.FetchMessage{
		Args: session.Args{URL: "/v1/items", Method: "POST"},
	}); err == nil {
		t.Fatalf("expected fetch query to reject mutating methods")
	}

	status, err := facade.Queries().TokenState.Query(ctx, sessionquery.TokenStateMessage{})
	if err != nil {
		t.Fatalf("token state query: %v", err)
	}
	if !status.HasAccessToken || !status.HasRefreshToken || len(status.Scopes) != 1 {
		t.Fatalf("unexpected token status: %#v", status)
	}

	if err := facade.Commands().ResetForceUpdate.Execute(ctx, sessioncommand.ResetForceUpdateMessage{}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if svc.retries != 0 {
		t.Fatalf("expected reset delegation")
	}
}

func TestFacade_BuildsExtensionBundles(t *testing.T) {
	hooks := NewExtensionHooks()
	if err := hooks.RegisterCommandQueryBundle("audit", func(session CommandQuerySession) (any, error) {
		return session, nil
	}); err != nil {
		t.Fatalf("register bundle: %v", err)
	}
	svc := &stubFacadeSession{}
	facade, err := NewFacade(svc, WithFacadeExtensions(hooks))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	bundle, ok := facade.Bundle("audit")
	if !ok || bundle != CommandQuerySession(svc) {
		t.Fatalf("expected audit bundle bound to the session, got %#v", bundle)
	}
	if _, ok := facade.Bundle("missing"); ok {
		t.Fatalf("expected missing bundle lookup to fail")
	}
}

type stubFacadeSession struct {
	lastArgs session.Args
	tokens   core.TokenState
	retries  int
}

func (s *stubFacadeSession) Request(_ context.Context, args session.Args) (core.Outcome, error) {
	s.lastArgs = args
	return core.Outcome{Kind: core.OutcomeSuccess, StatusCode: 200}, nil
}

func (s *stubFacadeSession) Refresh(context.Context) (core.TokenState, error) {
	return s.tokens, nil
}

func (s *stubFacadeSession) ResetForceUpdate(context.Context) error {
	s.retries = 0
	return nil
}

func (s *stubFacadeSession) Tokens(context.Context) (core.TokenState, error) {
	return s.tokens, nil
}

func (s *stubFacadeSession) ForceUpdateRetries(context.Context) (int, error) {
	return s.retries, nil
}
