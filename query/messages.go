package query

const (
	TypeActiveSession   = "twitterkit.query.session.active"
	TypeListSessions    = "twitterkit.query.session.list"
	TypeGetSession      = "twitterkit.query.session.get"
	TypeAuthorizeStatus = "twitterkit.query.authorize.status"
	TypeMonitorStatus   = "twitterkit.query.monitor.status"
)

type ActiveSessionMessage struct{}

func (ActiveSessionMessage) Type() string { return TypeActiveSession }

type ListSessionsMessage struct{}

func (ListSessionsMessage) Type() string { return TypeListSessions }

type GetSessionMessage struct {
	SessionID int64
}

func (GetSessionMessage) Type() string { return TypeGetSession }

func (m GetSessionMessage) Validate() error {
	if m.SessionID < 0 {
		return invalidField("session_id", "session id must be >= 0")
	}
	return nil
}

type AuthorizeStatusMessage struct{}

func (AuthorizeStatusMessage) Type() string { return TypeAuthorizeStatus }

type MonitorStatusMessage struct{}

func (MonitorStatusMessage) Type() string { return TypeMonitorStatus }
