package twitterkit

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/adapters/gologger"
	"github.com/goliatone/go-twitterkit/auth"
	"github.com/goliatone/go-twitterkit/core"
	"github.com/goliatone/go-twitterkit/inbound"
	"github.com/goliatone/go-twitterkit/monitor"
	"github.com/goliatone/go-twitterkit/transport"
)

const defaultHTTPTimeout = 30 * time.Second

// Kit wires the login flow, the guest credential lifecycle and the session
// verification monitor around one Service.
type Kit struct {
	service       *core.Service
	sessions      core.SessionManager
	guestSessions core.SessionManager
	hooks         *ExtensionHooks
	roundTripper  http.RoundTripper
	userAgent     string
	now           func() time.Time
	observer      core.Observer

	signer        *auth.OAuth1Signer
	flow          *auth.AuthorizationFlow
	guard         *auth.SingleFlightGuard
	issuer        *auth.GuestTokenIssuer
	guest         *auth.GuestSessionProvider
	authenticator *transport.GuestAuthenticator
	accounts      *transport.AccountClient
	verifier      *monitor.SessionVerifier
	monitor       *monitor.SessionMonitor
	callbacks     *inbound.Dispatcher

	mu      sync.Mutex
	pending map[string]core.SignedPairCredential
}

type KitOption func(*kitOptions)

type kitOptions struct {
	roundTripper  http.RoundTripper
	guestSessions core.SessionManager
	hooks         *ExtensionHooks
	claimStore    inbound.ClaimStore
	monitorState  *monitor.MonitorState
}

// WithRoundTripper sets the base transport under every HTTP client the Kit
// builds.
func WithRoundTripper(rt http.RoundTripper) KitOption {
	return func(o *kitOptions) {
		o.roundTripper = rt
	}
}

// WithGuestSessionManager keeps the guest session apart from user sessions.
// Defaults to an in-memory store.
func WithGuestSessionManager(manager core.SessionManager) KitOption {
	return func(o *kitOptions) {
		o.guestSessions = manager
	}
}

func WithExtensionHooks(hooks *ExtensionHooks) KitOption {
	return func(o *kitOptions) {
		o.hooks = hooks
	}
}

func WithCallbackClaimStore(store inbound.ClaimStore) KitOption {
	return func(o *kitOptions) {
		o.claimStore = store
	}
}

func WithMonitorState(state *monitor.MonitorState) KitOption {
	return func(o *kitOptions) {
		o.monitorState = state
	}
}

// New builds a Service from cfg and wires a Kit around it.
func New(cfg Config, opts ...Option) (*Kit, error) {
	service, err := core.NewService(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewKit(service)
}

func NewKit(service *core.Service, opts ...KitOption) (*Kit, error) {
	if service == nil {
		return nil, core.NewError("twitterkit: service is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	options := kitOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&options)
	}

	cfg := service.Config()
	deps := service.Dependencies()
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	guestSessions := options.guestSessions
	if guestSessions == nil {
		guestSessions = core.NewMemorySessionStore()
	}
	hooks := options.hooks
	if hooks == nil {
		hooks = NewExtensionHooks()
	}
	claimStore := options.claimStore
	if claimStore == nil {
		claimStore = inbound.NewInMemoryClaimStore()
	}

	httpClient := &http.Client{Transport: options.roundTripper, Timeout: defaultHTTPTimeout}
	doer := deps.HTTPDoer
	// OAuth1 token requests carry a one-shot nonce and verifier, so they
	// never go through the retrying doer.
	var handshakeDoer core.HTTPDoer = httpClient
	if doer != nil {
		handshakeDoer = doer
	} else {
		retrying, err := transport.NewRetryingDoer(httpClient)
		if err != nil {
			return nil, err
		}
		doer = retrying
	}
	userAgent := transport.BuildUserAgent(cfg.UserAgentClient, cfg.SDKVersion)

	kit := &Kit{
		service:       service,
		sessions:      deps.SessionManager,
		guestSessions: guestSessions,
		hooks:         hooks,
		roundTripper:  options.roundTripper,
		userAgent:     userAgent,
		now:           now,
		observer:      service.Observer("kit"),
		guard:         auth.NewSingleFlightGuard(),
		pending:       map[string]core.SignedPairCredential{},
	}

	var err error
	kit.signer, err = auth.NewOAuth1Signer(auth.OAuth1SignerConfig{
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		Now:            now,
		Nonce:          deps.Nonce,
	})
	if err != nil {
		return nil, err
	}

	kit.flow, err = auth.NewAuthorizationFlow(auth.AuthorizationFlowConfig{
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		APIHost:        cfg.APIHost,
		AppScheme:      cfg.AppScheme,
		SDKVersion:     cfg.SDKVersion,
		Transport:      transport.NewRESTAdapter(handshakeDoer).WithUserAgent(userAgent),
		Signer:         kit.signer,
		Logger:         componentLogger(service, "auth"),
		Metrics:        deps.MetricsRecorder,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}

	kit.issuer, err = auth.NewGuestTokenIssuer(auth.GuestTokenIssuerConfig{
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		APIHost:        cfg.APIHost,
		HTTPClient:     httpClient,
		Doer:           doer,
		Now:            now,
		Logger:         componentLogger(service, "guest"),
		Metrics:        deps.MetricsRecorder,
	})
	if err != nil {
		return nil, err
	}
	kit.guest, err = auth.NewGuestSessionProvider(auth.GuestSessionProviderConfig{
		Issuer:   kit.issuer,
		Sessions: guestSessions,
		Now:      now,
		Logger:   componentLogger(service, "guest"),
		Metrics:  deps.MetricsRecorder,
	})
	if err != nil {
		return nil, err
	}
	kit.authenticator, err = transport.NewGuestAuthenticator(transport.GuestAuthenticatorConfig{
		Provider: kit.guest,
		Logger:   componentLogger(service, "guest"),
		Metrics:  deps.MetricsRecorder,
	})
	if err != nil {
		return nil, err
	}

	kit.accounts, err = transport.NewAccountClient(transport.AccountClientConfig{
		APIHost:    cfg.APIHost,
		Doer:       doer,
		UserSigner: kit.signer,
		UserAgent:  userAgent,
		Logger:     componentLogger(service, "transport"),
		Metrics:    deps.MetricsRecorder,
	})
	if err != nil {
		return nil, err
	}
	kit.verifier, err = monitor.NewSessionVerifier(monitor.SessionVerifierConfig{
		Accounts:  kit.accounts,
		Telemetry: deps.TelemetrySink,
		Logger:    componentLogger(service, "monitor"),
		Metrics:   deps.MetricsRecorder,
	})
	if err != nil {
		return nil, err
	}
	kit.monitor, err = monitor.NewSessionMonitor(monitor.SessionMonitorConfig{
		Sessions:  kit.sessions,
		Verifier:  kit.verifier,
		Scheduler: deps.WorkScheduler,
		State:     options.monitorState,
		Now:       now,
		Logger:    componentLogger(service, "monitor"),
		Metrics:   deps.MetricsRecorder,
	})
	if err != nil {
		return nil, err
	}
	kit.callbacks = inbound.NewDispatcher(inbound.CallbackHandlerFunc(kit.completeFromCallback), claimStore)
	return kit, nil
}

func (k *Kit) Service() *core.Service {
	if k == nil {
		return nil
	}
	return k.service
}

func (k *Kit) Hooks() *ExtensionHooks {
	if k == nil {
		return nil
	}
	return k.hooks
}

func (k *Kit) Monitor() *monitor.SessionMonitor {
	if k == nil {
		return nil
	}
	return k.monitor
}

func (k *Kit) AuthorizationFlow() *auth.AuthorizationFlow {
	if k == nil {
		return nil
	}
	return k.flow
}

// Start hooks the verification monitor to source and runs a first check.
func (k *Kit) Start(ctx context.Context, source core.LifecycleSource) bool {
	if source != nil {
		k.monitor.MonitorActivityLifecycle(source)
	}
	return k.monitor.TriggerVerificationIfNecessary(ctx)
}

// BeginLogin requests a temporary token and returns the URL the user must
// approve. Only one login may be in progress.
func (k *Kit) BeginLogin(ctx context.Context) (core.LoginChallenge, error) {
	var (
		challenge core.LoginChallenge
		flowErr   error
	)
	started := k.guard.BeginAuthorize(ctx, auth.AuthHandlerFunc(func(ctx context.Context) bool {
		resp, err := k.flow.RequestTempToken(ctx)
		if err != nil {
			flowErr = err
			return false
		}
		challenge = core.LoginChallenge{
			TempToken:        resp.Token,
			AuthorizationURL: k.flow.AuthorizationURL(resp.Token),
		}
		return true
	}))
	if !started {
		if flowErr != nil {
			return core.LoginChallenge{}, flowErr
		}
		return core.LoginChallenge{}, core.NewError(
			"twitterkit: authorization already in progress",
			goerrors.CategoryConflict,
			core.ErrorConflict,
		)
	}

	k.mu.Lock()
	k.pending[challenge.TempToken.Token] = challenge.TempToken
	k.mu.Unlock()
	return challenge, nil
}

// CompleteLogin exchanges the verifier for an access token and stores the
// resulting session. Unknown temporary tokens are rejected without a network
// call. A failed exchange keeps the login pending so the callback can be
// retried; only success, a denied callback or CancelLogin release it.
func (k *Kit) CompleteLogin(ctx context.Context, req core.CompleteLoginRequest) (core.Session, error) {
	tempToken, ok := k.pendingLogin(req.TempToken.Token)
	if !ok {
		return core.Session{}, unknownLogin(req.TempToken.Token)
	}
	if strings.TrimSpace(req.TempToken.Secret) == "" {
		req.TempToken.Secret = tempToken.Secret
	}

	resp, err := k.flow.RequestAccessToken(ctx, req.TempToken, req.Verifier)
	if err != nil {
		return core.Session{}, err
	}
	session, err := auth.NewSessionFromAuthResponse(resp)
	if err != nil {
		return core.Session{}, err
	}
	if req.Activate {
		err = k.sessions.SetActiveSession(ctx, session)
	} else {
		err = k.sessions.SetSession(ctx, session)
	}
	if err != nil {
		return core.Session{}, k.service.MapError(err)
	}
	k.releaseLogin(req.TempToken.Token)

	k.observer.Info(ctx, "user session stored", map[string]any{
		"session_id": session.ID,
		"auth_type":  core.AuthTypeOAuth1a,
	})
	k.hooks.NotifySession(ctx, SessionEvent{Kind: SessionEventLogin, Session: session, OccurredAt: k.now()})
	return session, nil
}

// CancelLogin releases an in-progress login without exchanging a token.
// Tokens that are not pending are ignored.
func (k *Kit) CancelLogin(tempToken string) {
	k.releaseLogin(tempToken)
}

func (k *Kit) pendingLogin(tempToken string) (core.SignedPairCredential, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	cred, ok := k.pending[strings.TrimSpace(tempToken)]
	return cred, ok
}

// releaseLogin ends the guard only for the login that owns tempToken.
func (k *Kit) releaseLogin(tempToken string) {
	key := strings.TrimSpace(tempToken)
	k.mu.Lock()
	_, ok := k.pending[key]
	delete(k.pending, key)
	k.mu.Unlock()
	if ok {
		k.guard.EndAuthorize()
	}
}

func unknownLogin(tempToken string) error {
	return core.NewError(
		"twitterkit: no login is waiting for this token",
		goerrors.CategoryNotFound,
		core.ErrorAuthFlowFailure,
	).WithMetadata(map[string]any{"oauth_token": tempToken})
}

// HandleCallback completes the login behind an OAuth callback. Duplicate
// callbacks for the same temporary token are reported as deduped.
func (k *Kit) HandleCallback(ctx context.Context, req inbound.CallbackRequest) (inbound.CallbackResult, error) {
	result, err := k.callbacks.Dispatch(ctx, req)
	if result.Denied {
		k.releaseLogin(req.TempToken)
	}
	return result, err
}

func (k *Kit) completeFromCallback(ctx context.Context, req inbound.CallbackRequest) (core.Session, error) {
	tempToken, ok := k.pendingLogin(req.TempToken)
	if !ok {
		return core.Session{}, unknownLogin(req.TempToken)
	}
	return k.CompleteLogin(ctx, core.CompleteLoginRequest{
		TempToken: tempToken,
		Verifier:  req.Verifier,
		Activate:  true,
	})
}

func (k *Kit) Logout(ctx context.Context, sessionID int64) error {
	session, ok, err := k.sessions.Session(ctx, sessionID)
	if err != nil {
		return k.service.MapError(err)
	}
	if err := k.sessions.ClearSession(ctx, sessionID); err != nil {
		return k.service.MapError(err)
	}
	if ok {
		k.hooks.NotifySession(ctx, SessionEvent{Kind: SessionEventLogout, Session: session, OccurredAt: k.now()})
	}
	return nil
}

// RefreshGuestCredential replaces the current guest credential.
func (k *Kit) RefreshGuestCredential(ctx context.Context) (core.BearerCredential, error) {
	current, err := k.guest.CurrentCredential(ctx)
	if err != nil {
		return core.BearerCredential{}, err
	}
	return k.guest.RefreshCredential(ctx, current)
}

func (k *Kit) GuestCredential(ctx context.Context) (core.BearerCredential, error) {
	return k.guest.CurrentCredential(ctx)
}

func (k *Kit) TriggerVerification(ctx context.Context) bool {
	return k.monitor.TriggerVerificationIfNecessary(ctx)
}

func (k *Kit) VerifySessions(ctx context.Context) {
	k.monitor.VerifyAll(ctx)
}

func (k *Kit) ActiveSession(ctx context.Context) (core.Session, bool, error) {
	return k.sessions.ActiveSession(ctx)
}

func (k *Kit) Sessions(ctx context.Context) (map[int64]core.Session, error) {
	return k.sessions.Sessions(ctx)
}

func (k *Kit) Session(ctx context.Context, id int64) (core.Session, bool, error) {
	return k.sessions.Session(ctx, id)
}

func (k *Kit) IsAuthorizeInProgress() bool {
	return k.guard.IsAuthorizeInProgress()
}

func (k *Kit) MonitorStatus() core.MonitorStatus {
	state := k.monitor.State()
	return core.MonitorStatus{
		Verifying:        state.IsVerifying(),
		LastVerification: state.LastVerification(),
	}
}

// UserHTTPClient returns a client that signs every request as session.
func (k *Kit) UserHTTPClient(session core.Session) (*http.Client, error) {
	cred, ok := session.SignedPair()
	if !ok {
		return nil, core.NewError("twitterkit: user client requires an oauth1a session", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	return &http.Client{
		Timeout: defaultHTTPTimeout,
		Transport: &transport.SigningRoundTripper{
			Base:       k.roundTripper,
			Signer:     k.signer,
			Credential: cred,
			UserAgent:  k.userAgent,
		},
	}, nil
}

// GuestHTTPClient returns a client that authenticates as the shared guest
// and refreshes the guest credential once when it is rejected.
func (k *Kit) GuestHTTPClient() *http.Client {
	return &http.Client{
		Timeout: defaultHTTPTimeout,
		Transport: &transport.GuestRoundTripper{
			Base:          k.roundTripper,
			Provider:      k.guest,
			Authenticator: k.authenticator,
			UserAgent:     k.userAgent,
		},
	}
}

// componentLogger names component loggers under the twitterkit root, so a
// provider sees "twitterkit.monitor" rather than "monitor".
func componentLogger(service *core.Service, component string) core.Logger {
	deps := service.Dependencies()
	return gologger.Component(deps.LoggerProvider, deps.Logger, component)
}
