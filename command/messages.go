package command

import (
	"strings"

	"github.com/goliatone/go-twitterkit/core"
)

const (
	TypeBeginLogin          = "twitterkit.command.login.begin"
	TypeCompleteLogin       = "twitterkit.command.login.complete"
	TypeLogout              = "twitterkit.command.logout"
	TypeTriggerVerification = "twitterkit.command.verification.trigger"
	TypeVerifySessions      = "twitterkit.command.verification.run"
	TypeRefreshGuest        = "twitterkit.command.guest.refresh"
)

type BeginLoginMessage struct{}

func (BeginLoginMessage) Type() string { return TypeBeginLogin }

type CompleteLoginMessage struct {
	Request core.CompleteLoginRequest
}

func (CompleteLoginMessage) Type() string { return TypeCompleteLogin }

func (m CompleteLoginMessage) Validate() error {
	if strings.TrimSpace(m.Request.TempToken.Token) == "" {
		return invalidField("temp_token", "temporary token is required")
	}
	if strings.TrimSpace(m.Request.Verifier) == "" {
		return invalidField("verifier", "oauth verifier is required")
	}
	return nil
}

// LogoutMessage clears SessionID, or the active session when SessionID is
// zero.
type LogoutMessage struct {
	SessionID int64
}

func (LogoutMessage) Type() string { return TypeLogout }

func (m LogoutMessage) Validate() error {
	if m.SessionID < 0 {
		return invalidField("session_id", "session id must be >= 0")
	}
	return nil
}

type TriggerVerificationMessage struct{}

func (TriggerVerificationMessage) Type() string { return TypeTriggerVerification }

type VerifySessionsMessage struct{}

func (VerifySessionsMessage) Type() string { return TypeVerifySessions }

type RefreshGuestMessage struct{}

func (RefreshGuestMessage) Type() string { return TypeRefreshGuest }
