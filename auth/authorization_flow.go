package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

const (
	PathRequestToken = "/oauth/request_token"
	PathAccessToken  = "/oauth/access_token"
	PathAuthorize    = "/oauth/authorize"

	paramVerifier = "oauth_verifier"

	reasonMalformedResponse = "empty_or_malformed_response"
)

type AuthorizationFlowConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	APIHost        string
	AppScheme      string
	SDKVersion     string
	Transport      core.TransportAdapter
	Signer         *OAuth1Signer
	Logger         core.Logger
	Metrics        core.MetricsRecorder
	Now            func() time.Time
}

// AuthorizationFlow drives the three-legged OAuth 1.0a handshake.
type AuthorizationFlow struct {
	config    AuthorizationFlowConfig
	signer    *OAuth1Signer
	transport core.TransportAdapter
	observer  core.Observer
}

// AuthResult is delivered once on the channel returned by the async calls.
type AuthResult struct {
	Response AuthResponse
	Err      error
}

func NewAuthorizationFlow(cfg AuthorizationFlowConfig) (*AuthorizationFlow, error) {
	if cfg.Transport == nil {
		return nil, core.NewError("auth: authorization flow requires a transport", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	host := strings.TrimRight(firstNonEmpty(cfg.APIHost, core.DefaultAPIHost), "/")
	scheme := firstNonEmpty(cfg.AppScheme, core.DefaultAppScheme)
	version := firstNonEmpty(cfg.SDKVersion, core.DefaultSDKVersion)

	signer := cfg.Signer
	if signer == nil {
		var err error
		signer, err = NewOAuth1Signer(OAuth1SignerConfig{
			ConsumerKey:    cfg.ConsumerKey,
			ConsumerSecret: cfg.ConsumerSecret,
			Now:            cfg.Now,
		})
		if err != nil {
			return nil, err
		}
	}

	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &AuthorizationFlow{
		config: AuthorizationFlowConfig{
			ConsumerKey:    signer.ConsumerKey,
			ConsumerSecret: signer.ConsumerSecret,
			APIHost:        host,
			AppScheme:      scheme,
			SDKVersion:     version,
			Now:            now,
		},
		signer:    signer,
		transport: cfg.Transport,
		observer:  core.NewObserver(cfg.Logger, cfg.Metrics),
	}, nil
}

// CallbackURL is the url the user agent returns to once the user approves
// the application. Parameter order is fixed.
func (f *AuthorizationFlow) CallbackURL() string {
	return fmt.Sprintf("%s://callback?version=%s&app=%s",
		f.config.AppScheme,
		url.QueryEscape(f.config.SDKVersion),
		url.QueryEscape(f.config.ConsumerKey),
	)
}

func (f *AuthorizationFlow) AuthorizationURL(tempToken core.SignedPairCredential) string {
	return f.config.APIHost + PathAuthorize + "?" + paramToken + "=" + url.QueryEscape(tempToken.Token)
}

func (f *AuthorizationFlow) RequestTempToken(ctx context.Context) (resp AuthResponse, err error) {
	startedAt := time.Now()
	defer func() {
		f.observer.ObserveOperation(ctx, startedAt, "request_temp_token", err, nil)
	}()

	return f.exchange(ctx, f.config.APIHost+PathRequestToken, SignatureRequest{
		Method:   http.MethodPost,
		Callback: f.CallbackURL(),
	})
}

func (f *AuthorizationFlow) RequestAccessToken(ctx context.Context, tempToken core.SignedPairCredential, verifier string) (resp AuthResponse, err error) {
	startedAt := time.Now()
	defer func() {
		fields := map[string]any{}
		if err == nil {
			fields["session_id"] = resp.UserID
			fields["auth_type"] = core.AuthTypeOAuth1a
		}
		f.observer.ObserveOperation(ctx, startedAt, "request_access_token", err, fields)
	}()

	if strings.TrimSpace(tempToken.Token) == "" {
		return AuthResponse{}, core.NewError("auth: temporary token is required", goerrors.CategoryBadInput, core.ErrorAuthFlowFailure)
	}
	endpoint := f.config.APIHost + PathAccessToken + "?" + paramVerifier + "=" + url.QueryEscape(strings.TrimSpace(verifier))
	resp, err = f.exchange(ctx, endpoint, SignatureRequest{
		Method: http.MethodPost,
		Token:  &tempToken,
	})
	if err != nil {
		return AuthResponse{}, err
	}
	resp.Token.CreatedAt = f.config.Now()
	return resp, nil
}

func (f *AuthorizationFlow) RequestTempTokenAsync(ctx context.Context) <-chan AuthResult {
	out := make(chan AuthResult, 1)
	go func() {
		defer close(out)
		resp, err := f.RequestTempToken(ctx)
		out <- AuthResult{Response: resp, Err: err}
	}()
	return out
}

func (f *AuthorizationFlow) RequestAccessTokenAsync(ctx context.Context, tempToken core.SignedPairCredential, verifier string) <-chan AuthResult {
	out := make(chan AuthResult, 1)
	go func() {
		defer close(out)
		resp, err := f.RequestAccessToken(ctx, tempToken, verifier)
		out <- AuthResult{Response: resp, Err: err}
	}()
	return out
}

func (f *AuthorizationFlow) exchange(ctx context.Context, endpoint string, sig SignatureRequest) (AuthResponse, error) {
	sig.URL = endpoint
	header, err := f.signer.AuthorizationHeader(sig)
	if err != nil {
		return AuthResponse{}, core.WrapError(err, goerrors.CategoryInternal, "auth: sign token request", core.ErrorAuthFlowFailure)
	}

	res, err := f.transport.Do(ctx, core.TransportRequest{
		Method: sig.Method,
		URL:    endpoint,
		Headers: map[string]string{
			HeaderAuthorization: header,
		},
	})
	if err != nil {
		return AuthResponse{}, core.WrapError(err, goerrors.CategoryExternal, "auth: token request failed", core.ErrorAuthFlowFailure).
			WithMetadata(map[string]any{"endpoint": endpoint})
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		category := goerrors.CategoryExternal
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			category = goerrors.CategoryAuth
		}
		return AuthResponse{}, core.NewError(
			fmt.Sprintf("auth: token request returned status %d", res.StatusCode),
			category,
			core.ErrorAuthFlowFailure,
		).WithCode(res.StatusCode).WithMetadata(map[string]any{
			"endpoint":    endpoint,
			"status_code": res.StatusCode,
		})
	}

	parsed, ok := ParseAuthResponse(string(res.Body))
	if !ok {
		return AuthResponse{}, core.NewError(
			"auth: failed to get token",
			goerrors.CategoryOperation,
			core.ErrorAuthFlowFailure,
		).WithMetadata(map[string]any{
			"endpoint": endpoint,
			"reason":   reasonMalformedResponse,
		})
	}
	return parsed, nil
}
