package monitor

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

const (
	ScribeClient          = "android"
	ScribePageCredentials = "credentials"
	ScribeActionImpress   = "impression"
)

// VerifyCredentialsEvent is emitted once for every verified session.
var VerifyCredentialsEvent = core.EventNamespace{
	Client: ScribeClient,
	Page:   ScribePageCredentials,
	Action: ScribeActionImpress,
}

type SessionVerifierConfig struct {
	Accounts  core.AccountVerifier
	Telemetry core.TelemetrySink
	Logger    core.Logger
	Metrics   core.MetricsRecorder
}

// SessionVerifier checks one session against the account endpoint.
type SessionVerifier struct {
	accounts  core.AccountVerifier
	telemetry core.TelemetrySink
	observer  core.Observer
}

func NewSessionVerifier(cfg SessionVerifierConfig) (*SessionVerifier, error) {
	if cfg.Accounts == nil {
		return nil, core.NewError("monitor: session verifier requires an account verifier", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	return &SessionVerifier{
		accounts:  cfg.Accounts,
		telemetry: cfg.Telemetry,
		observer:  core.NewObserver(cfg.Logger, cfg.Metrics),
	}, nil
}

// VerifySession calls verify_credentials for session. Failures are logged
// and counted but never returned.
func (v *SessionVerifier) VerifySession(ctx context.Context, session core.Session) {
	startedAt := time.Now()
	_, err := v.accounts.VerifyCredentials(ctx, session, core.VerifyCredentialsParams{
		IncludeEntities: true,
		SkipStatus:      false,
		IncludeEmail:    false,
	})
	fields := map[string]any{"session_id": session.ID}
	if session.Credential != nil {
		fields["auth_type"] = session.Credential.AuthType()
	}
	v.observer.ObserveOperation(ctx, startedAt, "verify_session", err, fields)
	if v.telemetry != nil {
		v.telemetry.Emit(ctx, VerifyCredentialsEvent)
	}
}
