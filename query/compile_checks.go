package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-apiclient/core"
)

var (
	_ gocmd.Querier[FetchMessage, core.Outcome]     = (*FetchQuery)(nil)
	_ gocmd.Querier[TokenStateMessage, TokenStatus] = (*TokenStateQuery)(nil)
	_ gocmd.Querier[ForceUpdateRetriesMessage, int] = (*ForceUpdateRetriesQuery)(nil)
)
