package core

import (
	"context"
	"net/http"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// HTTPDoer is the pluggable HTTP client used by transports and collaborators.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Transport executes a single exchange. Implementations never retry and
// report network failures through Exchange.Err with a zero status.
type Transport interface {
	Kind() string
	Environment() Environment
	Execute(ctx context.Context, desc RequestDescriptor) Exchange
}

// CredentialStore is the process-wide key/value store holding the token
// bundle, refresh scopes and the force update retry counter.
type CredentialStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// CredentialRefresher exchanges a refresh token for a new token bundle.
type CredentialRefresher interface {
	Refresh(ctx context.Context, refreshToken string, scopes []string) (TokenState, error)
}

type CredentialRefresherFunc func(ctx context.Context, refreshToken string, scopes []string) (TokenState, error)

func (f CredentialRefresherFunc) Refresh(ctx context.Context, refreshToken string, scopes []string) (TokenState, error) {
	return f(ctx, refreshToken, scopes)
}

// Reloader performs the environment reload requested by a force update.
type Reloader interface {
	Reload(ctx context.Context) error
}

type ReloadFunc func(ctx context.Context) error

func (f ReloadFunc) Reload(ctx context.Context) error {
	return f(ctx)
}

type NopReloader struct{}

func (NopReloader) Reload(context.Context) error { return nil }
