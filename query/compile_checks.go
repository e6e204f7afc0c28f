package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-twitterkit/core"
)

var (
	_ gocmd.Querier[ActiveSessionMessage, core.Session]       = (*ActiveSessionQuery)(nil)
	_ gocmd.Querier[ListSessionsMessage, []core.Session]      = (*ListSessionsQuery)(nil)
	_ gocmd.Querier[GetSessionMessage, core.Session]          = (*GetSessionQuery)(nil)
	_ gocmd.Querier[AuthorizeStatusMessage, bool]             = (*AuthorizeStatusQuery)(nil)
	_ gocmd.Querier[MonitorStatusMessage, core.MonitorStatus] = (*MonitorStatusQuery)(nil)
)
