package twitterkit

import (
	"fmt"

	kitcommand "github.com/goliatone/go-twitterkit/command"
	kitquery "github.com/goliatone/go-twitterkit/query"
)

type CommandQueryService interface {
	kitcommand.MutatingService
	kitcommand.VerificationService
	kitquery.SessionReader
	kitquery.AuthorizeStatusReader
	kitquery.MonitorStatusReader
}

type Commands struct {
	BeginLogin          *kitcommand.BeginLoginCommand
	CompleteLogin       *kitcommand.CompleteLoginCommand
	Logout              *kitcommand.LogoutCommand
	RefreshGuest        *kitcommand.RefreshGuestCommand
	TriggerVerification *kitcommand.TriggerVerificationCommand
	VerifySessions      *kitcommand.VerifySessionsCommand
}

type Queries struct {
	ActiveSession   *kitquery.ActiveSessionQuery
	ListSessions    *kitquery.ListSessionsQuery
	GetSession      *kitquery.GetSessionQuery
	AuthorizeStatus *kitquery.AuthorizeStatusQuery
	MonitorStatus   *kitquery.MonitorStatusQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
	bundles  map[string]any
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	hooks *ExtensionHooks
}

// WithFacadeHooks builds the command/query bundles registered on hooks
// alongside the built-in handlers.
func WithFacadeHooks(hooks *ExtensionHooks) FacadeOption {
	return func(options *facadeOptions) {
		options.hooks = hooks
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("twitterkit: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	bundles, err := cfg.hooks.BuildCommandQueryBundles(service)
	if err != nil {
		return nil, err
	}

	facade := &Facade{service: service, bundles: bundles}
	facade.commands = Commands{
		BeginLogin:          kitcommand.NewBeginLoginCommand(service),
		CompleteLogin:       kitcommand.NewCompleteLoginCommand(service),
		Logout:              kitcommand.NewLogoutCommand(service),
		RefreshGuest:        kitcommand.NewRefreshGuestCommand(service),
		TriggerVerification: kitcommand.NewTriggerVerificationCommand(service),
		VerifySessions:      kitcommand.NewVerifySessionsCommand(service),
	}
	facade.queries = Queries{
		ActiveSession:   kitquery.NewActiveSessionQuery(service),
		ListSessions:    kitquery.NewListSessionsQuery(service),
		GetSession:      kitquery.NewGetSessionQuery(service),
		AuthorizeStatus: kitquery.NewAuthorizeStatusQuery(service),
		MonitorStatus:   kitquery.NewMonitorStatusQuery(service),
	}

	return facade, nil
}

// Facade returns the command/query facade over k, including bundles from
// k's extension hooks.
func (k *Kit) Facade() (*Facade, error) {
	if k == nil {
		return nil, fmt.Errorf("twitterkit: kit is nil")
	}
	return NewFacade(k, WithFacadeHooks(k.hooks))
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

func (f *Facade) Bundle(name string) (any, bool) {
	if f == nil {
		return nil, false
	}
	bundle, ok := f.bundles[name]
	return bundle, ok
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*Kit)(nil)
