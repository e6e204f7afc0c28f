package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[BeginLoginMessage]          = (*BeginLoginCommand)(nil)
	_ gocmd.Commander[CompleteLoginMessage]       = (*CompleteLoginCommand)(nil)
	_ gocmd.Commander[LogoutMessage]              = (*LogoutCommand)(nil)
	_ gocmd.Commander[RefreshGuestMessage]        = (*RefreshGuestCommand)(nil)
	_ gocmd.Commander[TriggerVerificationMessage] = (*TriggerVerificationCommand)(nil)
	_ gocmd.Commander[VerifySessionsMessage]      = (*VerifySessionsCommand)(nil)
)
