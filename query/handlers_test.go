package query

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/session"
)

type stubSession struct {
	requests []session.Args
	tokens   core.TokenState
	retries  int
	err      error
}

func (s *stubSession) Request(_ context.Context, args session.Args) (core.Outcome, error) {
	s.requests = append(s.requests, args)
	return core.Outcome{Kind: core.OutcomeSuccess, StatusCode: 200}, s.err
}

func (s *stubSession) Tokens(context.Context) (core.TokenState, error) {
	return s.tokens, s.err
}

func (s *stubSession) ForceUpdateRetries(context.Context) (int, error) {
	return s.retries, s.err
}

func TestFetchQuery_AllowsReadOnlyMethods(t *testing.T) {
	stub := &stubSession{}
	q := NewFetchQuery(stub)
	for _, method := range []string{"", "get", "HEAD", "OPTIONS"} {
		if _, err := q.Query(context.Background(), FetchMessage{Args: session.Args{URL: "/items", Method: method}}); err != nil {
			t.Fatalf("%q: %v", method, err)
		}
	}
	if len(stub.requests) != 4 {
		t.Fatalf("expected 4 requests, got %d", len(stub.requests))
	}
}

func TestFetchQuery_RejectsMutatingMethods(t *testing.T) {
	stub := &stubSession{}
	q := NewFetchQuery(stub)
	for _, method := range []string{"POST", "PUT", "PATCH", "DELETE", "TRACE"} {
		_, err := q.Query(context.Background(), FetchMessage{Args: session.Args{URL: "/items", Method: method}})
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryValidation {
			t.Fatalf("%s: expected validation error, got %v", method, err)
		}
	}
	if _, err := q.Query(context.Background(), FetchMessage{}); err == nil {
		t.Fatalf("expected missing url error")
	}
	if len(stub.requests) != 0 {
		t.Fatalf("expected no requests")
	}
}

func TestTokenStateQuery_HidesTokens(t *testing.T) {
	stub := &stubSession{tokens: core.TokenState{AccessToken: "secret", Scopes: []string{"read"}}}
	status, err := NewTokenStateQuery(stub).Query(context.Background(), TokenStateMessage{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !status.HasAccessToken || status.HasRefreshToken || len(status.Scopes) != 1 {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestForceUpdateRetriesQuery(t *testing.T) {
	stub := &stubSession{retries: 2}
	retries, err := NewForceUpdateRetriesQuery(stub).Query(context.Background(), ForceUpdateRetriesMessage{})
	if err != nil || retries != 2 {
		t.Fatalf("expected 2 retries, got %d (%v)", retries, err)
	}

	stub.err = errors.New("store down")
	if _, err := NewForceUpdateRetriesQuery(stub).Query(context.Background(), ForceUpdateRetriesMessage{}); !errors.Is(err, stub.err) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestQueries_NilDependenciesReturnRichError(t *testing.T) {
	_, fetchErr := NewFetchQuery(nil).Query(context.Background(), FetchMessage{})
	_, tokenErr := NewTokenStateQuery(nil).Query(context.Background(), TokenStateMessage{})
	_, retriesErr := (*ForceUpdateRetriesQuery)(nil).Query(context.Background(), ForceUpdateRetriesMessage{})
	for _, err := range []error{fetchErr, tokenErr, retriesErr} {
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
			t.Fatalf("expected internal go-errors envelope, got %v", err)
		}
	}
}
