package query

import (
	"context"
	"time"

	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/session"
)

type Fetcher interface {
	Request(ctx context.Context, args session.Args) (core.Outcome, error)
}

type SessionReader interface {
	Tokens(ctx context.Context) (core.TokenState, error)
	ForceUpdateRetries(ctx context.Context) (int, error)
}

// TokenStatus describes the stored credentials without exposing them.
type TokenStatus struct {
	HasAccessToken  bool
	HasRefreshToken bool
	Scopes          []string
	ExpiresAt       *time.Time
}

type FetchQuery struct {
	fetcher Fetcher
}

func NewFetchQuery(fetcher Fetcher) *FetchQuery {
	return &FetchQuery{fetcher: fetcher}
}

func (q *FetchQuery) Query(ctx context.Context, msg FetchMessage) (core.Outcome, error) {
	if q == nil || q.fetcher == nil {
		return core.Outcome{}, queryDependencyError("query: session is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Outcome{}, err
	}
	return q.fetcher.Request(ctx, msg.Args)
}

type TokenStateQuery struct {
	reader SessionReader
}

func NewTokenStateQuery(reader SessionReader) *TokenStateQuery {
	return &TokenStateQuery{reader: reader}
}

func (q *TokenStateQuery) Query(ctx context.Context, _ TokenStateMessage) (TokenStatus, error) {
	if q == nil || q.reader == nil {
		return TokenStatus{}, queryDependencyError("query: session reader is required")
	}
	tokens, err := q.reader.Tokens(ctx)
	if err != nil {
		return TokenStatus{}, err
	}
	return TokenStatus{
		HasAccessToken:  tokens.HasAccessToken(),
		HasRefreshToken: tokens.HasRefreshToken(),
		Scopes:          append([]string(nil), tokens.Scopes...),
		ExpiresAt:       tokens.ExpiresAt,
	}, nil
}

type ForceUpdateRetriesQuery struct {
	reader SessionReader
}

func NewForceUpdateRetriesQuery(reader SessionReader) *ForceUpdateRetriesQuery {
	return &ForceUpdateRetriesQuery{reader: reader}
}

func (q *ForceUpdateRetriesQuery) Query(ctx context.Context, _ ForceUpdateRetriesMessage) (int, error) {
	if q == nil || q.reader == nil {
		return 0, queryDependencyError("query: session reader is required")
	}
	return q.reader.ForceUpdateRetries(ctx)
}
