package command

import "time"

type RefreshResult struct {
	HasRefreshToken bool
	Scopes          []string
	ExpiresAt       *time.Time
}
