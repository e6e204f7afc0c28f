package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	PathAppToken      = "/oauth2/token"
	PathGuestActivate = "/1.1/guest/activate.json"

	defaultIssuerTimeout = 30 * time.Second
	maxActivateBody      = 1 << 20
)

type GuestTokenIssuerConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	APIHost        string
	// HTTPClient performs the app-only token grant.
	HTTPClient *http.Client
	// Doer performs guest activation. It defaults to HTTPClient.
	Doer    core.HTTPDoer
	Now     func() time.Time
	Logger  core.Logger
	Metrics core.MetricsRecorder
}

// GuestTokenIssuer obtains an app-only bearer token with the client
// credentials grant and exchanges it for a guest token.
type GuestTokenIssuer struct {
	credentials clientcredentials.Config
	activateURL string
	httpClient  *http.Client
	doer        core.HTTPDoer
	now         func() time.Time
	observer    core.Observer
}

type guestActivation struct {
	GuestToken string `json:"guest_token"`
}

func NewGuestTokenIssuer(cfg GuestTokenIssuerConfig) (*GuestTokenIssuer, error) {
	consumerKey := strings.TrimSpace(cfg.ConsumerKey)
	consumerSecret := strings.TrimSpace(cfg.ConsumerSecret)
	if consumerKey == "" || consumerSecret == "" {
		return nil, core.NewError("auth: guest token issuer requires consumer credentials", goerrors.CategoryBadInput, core.ErrorGuestIssuance)
	}
	host := strings.TrimRight(firstNonEmpty(cfg.APIHost, core.DefaultAPIHost), "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultIssuerTimeout}
	}
	doer := cfg.Doer
	if doer == nil {
		doer = httpClient
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &GuestTokenIssuer{
		credentials: clientcredentials.Config{
			ClientID:     consumerKey,
			ClientSecret: consumerSecret,
			TokenURL:     host + PathAppToken,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		activateURL: host + PathGuestActivate,
		httpClient:  httpClient,
		doer:        doer,
		now:         now,
		observer:    core.NewObserver(cfg.Logger, cfg.Metrics),
	}, nil
}

// IssueAppToken runs the client credentials grant.
func (i *GuestTokenIssuer) IssueAppToken(ctx context.Context) (core.BearerCredential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, i.httpClient)
	token, err := i.credentials.Token(ctx)
	if err != nil {
		return core.BearerCredential{}, core.WrapError(err, goerrors.CategoryExternal, "auth: app-only token grant failed", core.ErrorGuestIssuance)
	}
	tokenType := strings.TrimSpace(token.TokenType)
	if tokenType == "" {
		tokenType = core.TokenTypeBearer
	}
	return core.BearerCredential{
		TokenType:   strings.ToLower(tokenType),
		AccessToken: token.AccessToken,
		IssuedAt:    i.now(),
	}, nil
}

// ActivateGuest exchanges an app-only token for a guest token.
func (i *GuestTokenIssuer) ActivateGuest(ctx context.Context, appToken core.BearerCredential) (string, error) {
	if strings.TrimSpace(appToken.AccessToken) == "" {
		return "", core.NewError("auth: app-only access token is required", goerrors.CategoryBadInput, core.ErrorGuestIssuance)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.activateURL, http.NoBody)
	if err != nil {
		return "", core.WrapError(err, goerrors.CategoryInternal, "auth: build guest activation request", core.ErrorGuestIssuance)
	}
	req.Header.Set(HeaderAuthorization, appToken.AuthorizationHeader())

	res, err := i.doer.Do(req)
	if err != nil {
		return "", core.WrapError(err, goerrors.CategoryExternal, "auth: guest activation failed", core.ErrorGuestIssuance)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxActivateBody))
	if err != nil {
		return "", core.WrapError(err, goerrors.CategoryExternal, "auth: read guest activation response", core.ErrorGuestIssuance)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", core.NewError(
			fmt.Sprintf("auth: guest activation returned status %d", res.StatusCode),
			goerrors.CategoryExternal,
			core.ErrorGuestIssuance,
		).WithCode(res.StatusCode)
	}

	activation := guestActivation{}
	if err := json.Unmarshal(body, &activation); err != nil {
		return "", core.WrapError(err, goerrors.CategoryExternal, "auth: decode guest activation response", core.ErrorGuestIssuance)
	}
	guestToken := strings.TrimSpace(activation.GuestToken)
	if guestToken == "" {
		return "", core.NewError("auth: guest activation returned no guest token", goerrors.CategoryExternal, core.ErrorGuestIssuance)
	}
	return guestToken, nil
}

func (i *GuestTokenIssuer) IssueGuestCredential(ctx context.Context) (cred core.BearerCredential, err error) {
	startedAt := time.Now()
	defer func() {
		i.observer.ObserveOperation(ctx, startedAt, "issue_guest_credential", err, map[string]any{
			"auth_type": core.AuthTypeGuest,
		})
	}()

	appToken, err := i.IssueAppToken(ctx)
	if err != nil {
		return core.BearerCredential{}, err
	}
	guestToken, err := i.ActivateGuest(ctx, appToken)
	if err != nil {
		return core.BearerCredential{}, err
	}
	appToken.GuestToken = guestToken
	appToken.IssuedAt = i.now()
	return appToken, nil
}
