package sqlstore

import "github.com/goliatone/go-apiclient/core"

var (
	_ core.CredentialStore = (*Store)(nil)
	_ core.CredentialStore = (*CachedStore)(nil)
)
