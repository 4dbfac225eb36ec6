package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SendMessage]             = (*SendCommand)(nil)
	_ gocmd.Commander[RefreshMessage]          = (*RefreshCommand)(nil)
	_ gocmd.Commander[ResetForceUpdateMessage] = (*ResetForceUpdateCommand)(nil)
)
