package gocommand

import (
	"context"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	"github.com/goliatone/go-twitterkit/core"
)

// MessageNamespace prefixes every twitterkit command and query type.
const MessageNamespace = "twitterkit."

// ValidateMessageContract checks that msg has a twitterkit type and passes
// its own Validate, when it has one.
func ValidateMessageContract(msg any) error {
	m, ok := msg.(command.Message)
	if !ok {
		return core.NewError("gocommand: message must implement Type() string", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	kind := strings.TrimSpace(m.Type())
	if !strings.HasPrefix(kind, MessageNamespace) || kind == MessageNamespace {
		return core.NewError("gocommand: message type must be namespaced under "+MessageNamespace, goerrors.CategoryBadInput, core.ErrorBadInput).
			WithMetadata(map[string]any{"type": kind})
	}
	return command.ValidateMessage(msg)
}

// RegistryAdapter owns the go-command registry the twitterkit handlers are
// registered in.
type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) ready() error {
	if a == nil || a.registry == nil {
		return core.NewError("gocommand: registry is not configured", goerrors.CategoryInternal, core.ErrorInternal)
	}
	return nil
}

// RegisterCommand registers a command or query handler. go-command keeps
// both in one registry.
func (a *RegistryAdapter) RegisterCommand(handler any) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.registry.RegisterCommand(handler)
}

// AddQueueResolver mirrors registered commands into a go-job queue registry
// so they can also run as queued jobs.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if err := a.ready(); err != nil {
		return err
	}
	if queueRegistry == nil {
		return core.NewError("gocommand: queue registry is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	return a.registry.AddResolver(strings.TrimSpace(key), jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	return a.ready() == nil && a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.registry.Initialize()
}

// Dispatch checks the message contract before handing msg to the
// dispatcher.
func Dispatch[T any](ctx context.Context, msg T) error {
	if err := ValidateMessageContract(msg); err != nil {
		return err
	}
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// RegisterAndSubscribe subscribes cmd on the dispatcher and registers it.
// The subscription is dropped when registration fails.
func RegisterAndSubscribe[T any](adapter *RegistryAdapter, cmd command.Commander[T], runnerOpts ...runner.Option) (commanddispatcher.Subscription, error) {
	if cmd == nil {
		return nil, core.NewError("gocommand: command is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	return subscribeThenRegister(adapter, cmd, func() commanddispatcher.Subscription {
		return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	})
}

func RegisterAndSubscribeQuery[T any, R any](adapter *RegistryAdapter, qry command.Querier[T, R], runnerOpts ...runner.Option) (commanddispatcher.Subscription, error) {
	if qry == nil {
		return nil, core.NewError("gocommand: query is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	return subscribeThenRegister(adapter, qry, func() commanddispatcher.Subscription {
		return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	})
}

func subscribeThenRegister(adapter *RegistryAdapter, handler any, subscribe func() commanddispatcher.Subscription) (commanddispatcher.Subscription, error) {
	if err := adapter.ready(); err != nil {
		return nil, err
	}
	subscription := subscribe()
	if err := adapter.RegisterCommand(handler); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}
