package transport

import (
	"context"
	"io"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

type priorResponseKey struct{}

// WithPriorResponse records res as the response that caused the request
// carrying ctx to be issued.
func WithPriorResponse(ctx context.Context, res *http.Response) context.Context {
	return context.WithValue(ctx, priorResponseKey{}, res)
}

type GuestAuthenticatorConfig struct {
	Provider core.GuestCredentialProvider
	Logger   core.Logger
	Metrics  core.MetricsRecorder
}

// GuestAuthenticator refreshes an expired guest credential after a 401 and
// resigns the failed request. It retries a request chain at most once.
type GuestAuthenticator struct {
	provider core.GuestCredentialProvider
	observer core.Observer
}

func NewGuestAuthenticator(cfg GuestAuthenticatorConfig) (*GuestAuthenticator, error) {
	if cfg.Provider == nil {
		return nil, core.NewError("transport: guest authenticator requires a credential provider", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	return &GuestAuthenticator{
		provider: cfg.Provider,
		observer: core.NewObserver(cfg.Logger, cfg.Metrics),
	}, nil
}

// ExpiredCredential reads the bearer and guest headers sent with the request
// that produced res.
func (a *GuestAuthenticator) ExpiredCredential(res *http.Response) (core.BearerCredential, bool) {
	if res == nil || res.Request == nil {
		return core.BearerCredential{}, false
	}
	return bearerFromHeaders(res.Request.Header)
}

func (a *GuestAuthenticator) PriorResponse(res *http.Response) (*http.Response, bool) {
	if res == nil || res.Request == nil {
		return nil, false
	}
	prior, ok := res.Request.Context().Value(priorResponseKey{}).(*http.Response)
	return prior, ok && prior != nil
}

// CanRetry reports true only for the first response of a chain.
func (a *GuestAuthenticator) CanRetry(res *http.Response) bool {
	if res == nil {
		return false
	}
	_, hasPrior := a.PriorResponse(res)
	return !hasPrior
}

// Resign returns a copy of req carrying cred in place of its bearer and
// guest headers.
func (a *GuestAuthenticator) Resign(req *http.Request, cred core.BearerCredential) *http.Request {
	resigned := req.Clone(req.Context())
	applyBearerHeaders(resigned.Header, cred)
	return resigned
}

// Authenticate returns the request to reissue after res, or nil when the
// authenticator declines. Refreshing blocks on the credential provider.
func (a *GuestAuthenticator) Authenticate(ctx context.Context, res *http.Response) (req *http.Request, err error) {
	if res == nil || res.StatusCode != http.StatusUnauthorized {
		return nil, nil
	}
	if !a.CanRetry(res) {
		a.observer.IncCounter(ctx, "guest_retry.declined", 1, map[string]string{"reason": "already_retried"})
		return nil, nil
	}
	expired, ok := a.ExpiredCredential(res)
	if !ok {
		a.observer.IncCounter(ctx, "guest_retry.declined", 1, map[string]string{"reason": "no_guest_headers"})
		return nil, nil
	}

	startedAt := time.Now()
	defer func() {
		a.observer.ObserveOperation(ctx, startedAt, "guest_refresh", err, map[string]any{
			"auth_type":   core.AuthTypeGuest,
			"status_code": res.StatusCode,
		})
	}()

	refreshed, err := a.provider.RefreshCredential(ctx, expired)
	if err != nil {
		return nil, err
	}
	if refreshed.IsZero() {
		return nil, nil
	}
	resigned := a.Resign(res.Request, refreshed)
	return resigned.WithContext(WithPriorResponse(resigned.Context(), res)), nil
}

// GuestRoundTripper attaches the current guest credential and, on a 401,
// reissues the request once with a refreshed credential.
type GuestRoundTripper struct {
	Base          http.RoundTripper
	Provider      core.GuestCredentialProvider
	Authenticator *GuestAuthenticator
	UserAgent     string
}

func (t *GuestRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t == nil || t.Provider == nil || t.Authenticator == nil {
		closeRequestBody(req)
		return nil, transportError("transport: guest round tripper is not configured", goerrors.CategoryInternal, http.StatusInternalServerError, nil)
	}
	ctx := req.Context()

	attempt := req.Clone(ctx)
	if t.UserAgent != "" && attempt.Header.Get(HeaderUserAgent) == "" {
		attempt.Header.Set(HeaderUserAgent, t.UserAgent)
	}
	if _, ok := bearerFromHeaders(attempt.Header); !ok {
		cred, err := t.Provider.CurrentCredential(ctx)
		if err != nil {
			closeRequestBody(req)
			return nil, err
		}
		applyBearerHeaders(attempt.Header, cred)
	}

	base := baseTransport(t.Base)
	res, err := base.RoundTrip(attempt)
	if err != nil || res.StatusCode != http.StatusUnauthorized {
		return res, err
	}
	if res.Request == nil {
		res.Request = attempt
	}

	retry, err := t.Authenticator.Authenticate(ctx, res)
	if err != nil || retry == nil {
		return res, nil
	}
	if err := rewindBody(retry); err != nil {
		t.Authenticator.observer.Warn(ctx, "guest retry skipped", map[string]any{
			"error":     err.Error(),
			"text_code": core.ErrorRetryDeclined,
		})
		return res, nil
	}

	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
	return base.RoundTrip(retry)
}

// rewindBody gives req a fresh body from GetBody.
func rewindBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	if req.GetBody == nil {
		return core.NewError("transport: request body cannot be replayed", goerrors.CategoryOperation, core.ErrorRetryDeclined)
	}
	body, err := req.GetBody()
	if err != nil {
		return core.WrapError(err, goerrors.CategoryOperation, "transport: replay request body", core.ErrorRetryDeclined)
	}
	req.Body = body
	return nil
}
