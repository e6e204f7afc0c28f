package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-twitterkit/core"
)

type MutatingService interface {
	BeginLogin(ctx context.Context) (core.LoginChallenge, error)
	CompleteLogin(ctx context.Context, req core.CompleteLoginRequest) (core.Session, error)
	Logout(ctx context.Context, sessionID int64) error
	RefreshGuestCredential(ctx context.Context) (core.BearerCredential, error)
}

type VerificationService interface {
	TriggerVerification(ctx context.Context) bool
	VerifySessions(ctx context.Context)
}

type BeginLoginCommand struct {
	service MutatingService
}

func NewBeginLoginCommand(service MutatingService) *BeginLoginCommand {
	return &BeginLoginCommand{service: service}
}

func (c *BeginLoginCommand) Execute(ctx context.Context, _ BeginLoginMessage) error {
	if c == nil || c.service == nil {
		return missingService("begin login")
	}
	out, err := c.service.BeginLogin(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteLoginCommand struct {
	service MutatingService
}

func NewCompleteLoginCommand(service MutatingService) *CompleteLoginCommand {
	return &CompleteLoginCommand{service: service}
}

func (c *CompleteLoginCommand) Execute(ctx context.Context, msg CompleteLoginMessage) error {
	if c == nil || c.service == nil {
		return missingService("complete login")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.CompleteLogin(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type LogoutCommand struct {
	service MutatingService
}

func NewLogoutCommand(service MutatingService) *LogoutCommand {
	return &LogoutCommand{service: service}
}

func (c *LogoutCommand) Execute(ctx context.Context, msg LogoutMessage) error {
	if c == nil || c.service == nil {
		return missingService("logout")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.service.Logout(ctx, msg.SessionID)
}

type RefreshGuestCommand struct {
	service MutatingService
}

func NewRefreshGuestCommand(service MutatingService) *RefreshGuestCommand {
	return &RefreshGuestCommand{service: service}
}

func (c *RefreshGuestCommand) Execute(ctx context.Context, _ RefreshGuestMessage) error {
	if c == nil || c.service == nil {
		return missingService("guest refresh")
	}
	out, err := c.service.RefreshGuestCredential(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// TriggerVerificationCommand stores whether a sweep was scheduled.
type TriggerVerificationCommand struct {
	service VerificationService
}

func NewTriggerVerificationCommand(service VerificationService) *TriggerVerificationCommand {
	return &TriggerVerificationCommand{service: service}
}

func (c *TriggerVerificationCommand) Execute(ctx context.Context, _ TriggerVerificationMessage) error {
	if c == nil || c.service == nil {
		return missingService("trigger verification")
	}
	storeResult(ctx, c.service.TriggerVerification(ctx))
	return nil
}

type VerifySessionsCommand struct {
	service VerificationService
}

func NewVerifySessionsCommand(service VerificationService) *VerifySessionsCommand {
	return &VerifySessionsCommand{service: service}
}

func (c *VerifySessionsCommand) Execute(ctx context.Context, _ VerifySessionsMessage) error {
	if c == nil || c.service == nil {
		return missingService("verify sessions")
	}
	c.service.VerifySessions(ctx)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
