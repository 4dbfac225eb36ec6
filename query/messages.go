package query

import (
	"strings"

	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/session"
)

const (
	TypeFetch              = "session.query.fetch"
	TypeTokenState         = "session.query.token_state"
	TypeForceUpdateRetries = "session.query.force_update.retries"
)

// FetchMessage runs a read-only request: GET, HEAD or OPTIONS.
type FetchMessage struct {
	Args session.Args
}

func (FetchMessage) Type() string { return TypeFetch }

func (m FetchMessage) Validate() error {
	if strings.TrimSpace(m.Args.URL) == "" {
		return queryValidationError("url", "url is required")
	}
	method, ok := core.NormalizeMethod(m.Args.Method)
	if !ok {
		return queryValidationError("method", "unsupported method "+m.Args.Method)
	}
	switch method {
	case core.MethodGet, core.MethodHead, core.MethodOptions:
		return nil
	default:
		return queryValidationError("method", method+" is not a read-only method")
	}
}

type TokenStateMessage struct{}

func (TokenStateMessage) Type() string { return TypeTokenState }

func (TokenStateMessage) Validate() error { return nil }

type ForceUpdateRetriesMessage struct{}

func (ForceUpdateRetriesMessage) Type() string { return TypeForceUpdateRetries }

func (ForceUpdateRetriesMessage) Validate() error { return nil }
