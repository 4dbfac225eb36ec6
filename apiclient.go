// Package apiclient issues authenticated HTTP requests against a backend API.
// It recovers from expired credentials through a refresh and retry, and from
// server-signaled version mismatches through a bounded reload.
package apiclient

import (
	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/session"
)

type Config = core.Config

type Environment = core.Environment

type Args = session.Args

type Pagination = session.Pagination

type Outcome = core.Outcome

type Pending = core.Pending

type Callbacks = core.Callbacks

type TokenState = core.TokenState

type CredentialStore = core.CredentialStore
type CredentialRefresher = core.CredentialRefresher
type Reloader = core.Reloader
type HTTPDoer = core.HTTPDoer
type MetricsRecorder = core.MetricsRecorder

const (
	EnvironmentHosted     = core.EnvironmentHosted
	EnvironmentStandalone = core.EnvironmentStandalone
)

var (
	BuildURI   = session.BuildURI
	LocationID = session.LocationID
	AsFailure  = core.AsFailure
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}
