package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/session"
)

// MutatingSession is the session surface the commands drive.
type MutatingSession interface {
	Request(ctx context.Context, args session.Args) (core.Outcome, error)
	Refresh(ctx context.Context) (core.TokenState, error)
	ResetForceUpdate(ctx context.Context) error
}

type SendCommand struct {
	session MutatingSession
}

func NewSendCommand(session MutatingSession) *SendCommand {
	return &SendCommand{session: session}
}

func (c *SendCommand) Execute(ctx context.Context, msg SendMessage) error {
	if c == nil || c.session == nil {
		return commandDependencyError("command: session is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.session.Request(ctx, msg.Args)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshCommand struct {
	session MutatingSession
}

func NewRefreshCommand(session MutatingSession) *RefreshCommand {
	return &RefreshCommand{session: session}
}

// Execute refreshes credentials. Only the presence of the new tokens is
// reported through the result collector, never the tokens themselves.
func (c *RefreshCommand) Execute(ctx context.Context, _ RefreshMessage) error {
	if c == nil || c.session == nil {
		return commandDependencyError("command: session is required")
	}
	tokens, err := c.session.Refresh(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, RefreshResult{
		HasRefreshToken: tokens.HasRefreshToken(),
		Scopes:          append([]string(nil), tokens.Scopes...),
		ExpiresAt:       tokens.ExpiresAt,
	})
	return nil
}

type ResetForceUpdateCommand struct {
	session MutatingSession
}

func NewResetForceUpdateCommand(session MutatingSession) *ResetForceUpdateCommand {
	return &ResetForceUpdateCommand{session: session}
}

func (c *ResetForceUpdateCommand) Execute(ctx context.Context, _ ResetForceUpdateMessage) error {
	if c == nil || c.session == nil {
		return commandDependencyError("command: session is required")
	}
	return c.session.ResetForceUpdate(ctx)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
