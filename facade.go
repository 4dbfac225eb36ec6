package apiclient

import (
	"fmt"

	sessioncommand "github.com/goliatone/go-apiclient/command"
	sessionquery "github.com/goliatone/go-apiclient/query"
)

type CommandQuerySession interface {
	sessioncommand.MutatingSession
	sessionquery.SessionReader
}

type Commands struct {
	Send             *sessioncommand.SendCommand
	Refresh          *sessioncommand.RefreshCommand
	ResetForceUpdate *sessioncommand.ResetForceUpdateCommand
}

type Queries struct {
	Fetch              *sessionquery.FetchQuery
	TokenState         *sessionquery.TokenStateQuery
	ForceUpdateRetries *sessionquery.ForceUpdateRetriesQuery
}

type Facade struct {
	session  CommandQuerySession
	commands Commands
	queries  Queries
	bundles  map[string]any
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	hooks *ExtensionHooks
}

// WithFacadeExtensions builds the command/query bundles registered on hooks.
func WithFacadeExtensions(hooks *ExtensionHooks) FacadeOption {
	return func(options *facadeOptions) {
		options.hooks = hooks
	}
}

func NewFacade(session CommandQuerySession, opts ...FacadeOption) (*Facade, error) {
	if session == nil {
		return nil, fmt.Errorf("apiclient: command/query session is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	bundles, err := cfg.hooks.BuildCommandQueryBundles(session)
	if err != nil {
		return nil, err
	}

	return &Facade{
		session: session,
		commands: Commands{
			Send:             sessioncommand.NewSendCommand(session),
			Refresh:          sessioncommand.NewRefreshCommand(session),
			ResetForceUpdate: sessioncommand.NewResetForceUpdateCommand(session),
		},
		queries: Queries{
			Fetch:              sessionquery.NewFetchQuery(session),
			TokenState:         sessionquery.NewTokenStateQuery(session),
			ForceUpdateRetries: sessionquery.NewForceUpdateRetriesQuery(session),
		},
		bundles: bundles,
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Session() CommandQuerySession {
	if f == nil {
		return nil
	}
	return f.session
}

// Bundle returns the extension bundle registered under name.
func (f *Facade) Bundle(name string) (any, bool) {
	if f == nil {
		return nil, false
	}
	bundle, ok := f.bundles[name]
	return bundle, ok
}
