package gocommand

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	kitcommand "github.com/goliatone/go-twitterkit/command"
	kitquery "github.com/goliatone/go-twitterkit/query"
)

// KitServices groups the collaborators behind the twitterkit commands and
// queries. Nil members skip their handlers.
type KitServices struct {
	Mutating     kitcommand.MutatingService
	Verification kitcommand.VerificationService
	Sessions     kitquery.SessionReader
	Authorize    kitquery.AuthorizeStatusReader
	Monitor      kitquery.MonitorStatusReader
}

// RegisterKit registers and subscribes every twitterkit handler whose
// collaborator is present. On error, subscriptions made so far are removed.
func RegisterKit(adapter *RegistryAdapter, services KitServices) ([]commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	subscriptions := []commanddispatcher.Subscription{}
	fail := func(err error) ([]commanddispatcher.Subscription, error) {
		for _, sub := range subscriptions {
			sub.Unsubscribe()
		}
		return nil, err
	}
	keep := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			return err
		}
		subscriptions = append(subscriptions, sub)
		return nil
	}

	if services.Mutating != nil {
		if err := keep(RegisterAndSubscribe(adapter, kitcommand.NewBeginLoginCommand(services.Mutating))); err != nil {
			return fail(err)
		}
		if err := keep(RegisterAndSubscribe(adapter, kitcommand.NewCompleteLoginCommand(services.Mutating))); err != nil {
			return fail(err)
		}
		if err := keep(RegisterAndSubscribe(adapter, kitcommand.NewLogoutCommand(services.Mutating))); err != nil {
			return fail(err)
		}
		if err := keep(RegisterAndSubscribe(adapter, kitcommand.NewRefreshGuestCommand(services.Mutating))); err != nil {
			return fail(err)
		}
	}
	if services.Verification != nil {
		if err := keep(RegisterAndSubscribe(adapter, kitcommand.NewTriggerVerificationCommand(services.Verification))); err != nil {
			return fail(err)
		}
		if err := keep(RegisterAndSubscribe(adapter, kitcommand.NewVerifySessionsCommand(services.Verification))); err != nil {
			return fail(err)
		}
	}
	if services.Sessions != nil {
		if err := keep(RegisterAndSubscribeQuery(adapter, kitquery.NewActiveSessionQuery(services.Sessions))); err != nil {
			return fail(err)
		}
		if err := keep(RegisterAndSubscribeQuery(adapter, kitquery.NewListSessionsQuery(services.Sessions))); err != nil {
			return fail(err)
		}
		if err := keep(RegisterAndSubscribeQuery(adapter, kitquery.NewGetSessionQuery(services.Sessions))); err != nil {
			return fail(err)
		}
	}
	if services.Authorize != nil {
		if err := keep(RegisterAndSubscribeQuery(adapter, kitquery.NewAuthorizeStatusQuery(services.Authorize))); err != nil {
			return fail(err)
		}
	}
	if services.Monitor != nil {
		if err := keep(RegisterAndSubscribeQuery(adapter, kitquery.NewMonitorStatusQuery(services.Monitor))); err != nil {
			return fail(err)
		}
	}
	return subscriptions, nil
}
