package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

const PathVerifyCredentials = "/1.1/account/verify_credentials.json"

const maxAccountBody int64 = 1 << 20

type AccountClientConfig struct {
	APIHost string
	Doer    core.HTTPDoer
	// UserSigner signs requests for sessions holding a signed pair.
	UserSigner core.Signer
	// GuestSigner signs requests for sessions holding a bearer credential.
	GuestSigner core.Signer
	UserAgent   string
	Logger      core.Logger
	Metrics     core.MetricsRecorder
}

// AccountClient calls the account endpoints on behalf of a session.
type AccountClient struct {
	host        string
	doer        core.HTTPDoer
	userSigner  core.Signer
	guestSigner core.Signer
	userAgent   string
	observer    core.Observer
}

func NewAccountClient(cfg AccountClientConfig) (*AccountClient, error) {
	if cfg.UserSigner == nil {
		return nil, core.NewError("transport: account client requires a user signer", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	host := strings.TrimRight(strings.TrimSpace(cfg.APIHost), "/")
	if host == "" {
		host = core.DefaultAPIHost
	}
	doer := cfg.Doer
	if doer == nil {
		doer = &http.Client{Timeout: defaultRESTClientTimeout}
	}
	guestSigner := cfg.GuestSigner
	if guestSigner == nil {
		guestSigner = BearerSigner{}
	}
	return &AccountClient{
		host:        host,
		doer:        doer,
		userSigner:  cfg.UserSigner,
		guestSigner: guestSigner,
		userAgent:   strings.TrimSpace(cfg.UserAgent),
		observer:    core.NewObserver(cfg.Logger, cfg.Metrics),
	}, nil
}

func (c *AccountClient) VerifyCredentials(
	ctx context.Context,
	session core.Session,
	params core.VerifyCredentialsParams,
) (user core.AccountUser, err error) {
	startedAt := time.Now()
	statusCode := 0
	defer func() {
		fields := map[string]any{"session_id": session.ID}
		if session.Credential != nil {
			fields["auth_type"] = session.Credential.AuthType()
		}
		if statusCode != 0 {
			fields["status_code"] = statusCode
		}
		c.observer.ObserveOperation(ctx, startedAt, "verify_credentials", err, fields)
	}()

	if session.Credential == nil {
		return core.AccountUser{}, core.NewError("transport: session credential is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}

	query := url.Values{}
	query.Set("include_entities", strconv.FormatBool(params.IncludeEntities))
	query.Set("skip_status", strconv.FormatBool(params.SkipStatus))
	query.Set("include_email", strconv.FormatBool(params.IncludeEmail))
	endpoint := c.host + PathVerifyCredentials + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.AccountUser{}, transportWrapError(err, goerrors.CategoryBadInput, "transport: create verify credentials request", http.StatusBadRequest, nil)
	}
	if c.userAgent != "" {
		req.Header.Set(HeaderUserAgent, c.userAgent)
	}
	if err := c.signerFor(session).Sign(ctx, req, session.Credential); err != nil {
		return core.AccountUser{}, err
	}

	res, err := c.doer.Do(req)
	if err != nil {
		return core.AccountUser{}, transportWrapError(err, goerrors.CategoryExternal, "transport: execute verify credentials", http.StatusBadGateway, nil)
	}
	defer res.Body.Close()
	statusCode = res.StatusCode

	body, err := io.ReadAll(io.LimitReader(res.Body, maxAccountBody))
	if err != nil {
		return core.AccountUser{}, transportWrapError(err, goerrors.CategoryExternal, "transport: read verify credentials response", http.StatusBadGateway, nil)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return core.AccountUser{}, apiStatusError(res, body)
	}

	if err := json.Unmarshal(body, &user); err != nil {
		return core.AccountUser{}, transportWrapError(err, goerrors.CategoryExternal, "transport: decode verify credentials response", http.StatusBadGateway, nil)
	}
	return user, nil
}

func (c *AccountClient) signerFor(session core.Session) core.Signer {
	if _, ok := session.Bearer(); ok {
		return c.guestSigner
	}
	return c.userSigner
}

// apiStatusError carries the parsed API error and rate limit of a failed
// call in the error metadata.
func apiStatusError(res *http.Response, body []byte) error {
	rateLimit := ParseRateLimit(res.Header)
	metadata := map[string]any{
		"status_code":          res.StatusCode,
		"rate_limit_limit":     rateLimit.Limit,
		"rate_limit_remaining": rateLimit.Remaining,
		"rate_limit_reset":     rateLimit.Reset,
	}
	message := fmt.Sprintf("transport: api returned status %d", res.StatusCode)
	if apiErr, ok := ParseAPIError(body); ok {
		metadata["api_error_code"] = apiErr.Code
		metadata["api_error_message"] = apiErr.Message
		message = fmt.Sprintf("%s: %s", message, apiErr.Message)
	}
	return transportError(message, categoryForStatus(res.StatusCode), res.StatusCode, metadata)
}

var _ core.AccountVerifier = (*AccountClient)(nil)
