package command

import (
	"strings"

	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/session"
)

const (
	TypeSend             = "session.command.send"
	TypeRefresh          = "session.command.refresh"
	TypeResetForceUpdate = "session.command.force_update.reset"
)

// SendMessage issues one logical request. The outcome is stored in the
// go-command result collector of the context when one is present.
type SendMessage struct {
	Args session.Args
}

func (SendMessage) Type() string { return TypeSend }

func (m SendMessage) Validate() error {
	if strings.TrimSpace(m.Args.URL) == "" {
		return commandValidationError("url", "url is required")
	}
	if _, ok := core.NormalizeMethod(m.Args.Method); !ok {
		return commandValidationError("method", "unsupported method "+m.Args.Method)
	}
	return nil
}

type RefreshMessage struct{}

func (RefreshMessage) Type() string { return TypeRefresh }

func (RefreshMessage) Validate() error { return nil }

type ResetForceUpdateMessage struct{}

func (ResetForceUpdateMessage) Type() string { return TypeResetForceUpdate }

func (ResetForceUpdateMessage) Validate() error { return nil }
