package inbound

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

// CallbackHandler completes a login from an approved callback.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, req CallbackRequest) (core.Session, error)
}

type CallbackHandlerFunc func(ctx context.Context, req CallbackRequest) (core.Session, error)

func (fn CallbackHandlerFunc) HandleCallback(ctx context.Context, req CallbackRequest) (core.Session, error) {
	return fn(ctx, req)
}

// ClaimStore guards a key with claim/complete/fail semantics.
type ClaimStore interface {
	Claim(ctx context.Context, key string, lease time.Duration) (claimID string, accepted bool, err error)
	Complete(ctx context.Context, claimID string) error
	Fail(ctx context.Context, claimID string, cause error, retryAt time.Time) error
}

type CallbackResult struct {
	Session core.Session
	Deduped bool
	Denied  bool
}

// defaultKeyTTL covers the time a user needs to approve the app and the
// callback to arrive.
const defaultKeyTTL = 10 * time.Minute

type Dispatcher struct {
	Handler CallbackHandler
	Store   ClaimStore
	KeyTTL  time.Duration
}

func NewDispatcher(handler CallbackHandler, store ClaimStore) *Dispatcher {
	return &Dispatcher{
		Handler: handler,
		Store:   store,
		KeyTTL:  defaultKeyTTL,
	}
}

// Dispatch completes the login behind req at most once per temporary token.
// A denied callback is reported without calling the handler.
func (d *Dispatcher) Dispatch(ctx context.Context, req CallbackRequest) (CallbackResult, error) {
	if d == nil || d.Handler == nil {
		return CallbackResult{}, misconfigured("inbound: callback handler is not configured")
	}
	if req.IsDenied() {
		return CallbackResult{Denied: true}, callbackFailure(
			nil,
			goerrors.CategoryAuth,
			"inbound: user denied authorization",
			http.StatusUnauthorized,
			core.ErrorAuthFlowFailure,
			map[string]any{"oauth_token": req.TempToken},
		)
	}
	req.TempToken = strings.TrimSpace(req.TempToken)
	if req.TempToken == "" || strings.TrimSpace(req.Verifier) == "" {
		return CallbackResult{}, badCallback("inbound: callback requires oauth_token and oauth_verifier", nil)
	}

	claimID := ""
	if d.Store != nil {
		var accepted bool
		var err error
		claimID, accepted, err = d.Store.Claim(ctx, "callback:"+req.TempToken, d.keyTTL())
		if err != nil {
			return CallbackResult{}, callbackFailure(
				err,
				goerrors.CategoryOperation,
				"inbound: callback claim failed",
				http.StatusInternalServerError,
				core.ErrorOperationFailed,
				map[string]any{"oauth_token": req.TempToken},
			)
		}
		if !accepted {
			return CallbackResult{Deduped: true}, nil
		}
	}

	session, err := d.Handler.HandleCallback(ctx, req)
	if err != nil {
		handlerErr := callbackFailure(
			err,
			goerrors.CategoryOperation,
			"inbound: complete login failed",
			http.StatusBadGateway,
			core.ErrorAuthFlowFailure,
			map[string]any{"oauth_token": req.TempToken},
		)
		if d.Store != nil && claimID != "" {
			if failErr := d.Store.Fail(ctx, claimID, err, time.Time{}); failErr != nil {
				return CallbackResult{}, errors.Join(
					handlerErr,
					callbackFailure(
						failErr,
						goerrors.CategoryOperation,
						"inbound: release callback claim",
						http.StatusInternalServerError,
						core.ErrorInternal,
						map[string]any{"claim_id": claimID},
					),
				)
			}
		}
		return CallbackResult{}, handlerErr
	}

	if d.Store != nil && claimID != "" {
		if err := d.Store.Complete(ctx, claimID); err != nil {
			return CallbackResult{Session: session}, callbackFailure(
				err,
				goerrors.CategoryOperation,
				"inbound: complete callback claim",
				http.StatusInternalServerError,
				core.ErrorOperationFailed,
				map[string]any{"claim_id": claimID},
			)
		}
	}
	return CallbackResult{Session: session}, nil
}

func (d *Dispatcher) keyTTL() time.Duration {
	if d != nil && d.KeyTTL > 0 {
		return d.KeyTTL
	}
	return defaultKeyTTL
}
