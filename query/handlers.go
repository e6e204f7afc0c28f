package query

import (
	"context"
	"sort"

	"github.com/goliatone/go-twitterkit/core"
)

type SessionReader interface {
	ActiveSession(ctx context.Context) (core.Session, bool, error)
	Sessions(ctx context.Context) (map[int64]core.Session, error)
	Session(ctx context.Context, id int64) (core.Session, bool, error)
}

type AuthorizeStatusReader interface {
	IsAuthorizeInProgress() bool
}

type MonitorStatusReader interface {
	MonitorStatus() core.MonitorStatus
}

type ActiveSessionQuery struct {
	reader SessionReader
}

func NewActiveSessionQuery(reader SessionReader) *ActiveSessionQuery {
	return &ActiveSessionQuery{reader: reader}
}

func (q *ActiveSessionQuery) Query(ctx context.Context, _ ActiveSessionMessage) (core.Session, error) {
	if q == nil || q.reader == nil {
		return core.Session{}, missingReader("session")
	}
	session, ok, err := q.reader.ActiveSession(ctx)
	if err != nil {
		return core.Session{}, err
	}
	if !ok {
		return core.Session{}, noSession(0)
	}
	return session, nil
}

// ListSessionsQuery returns every stored session ordered by id.
type ListSessionsQuery struct {
	reader SessionReader
}

func NewListSessionsQuery(reader SessionReader) *ListSessionsQuery {
	return &ListSessionsQuery{reader: reader}
}

func (q *ListSessionsQuery) Query(ctx context.Context, _ ListSessionsMessage) ([]core.Session, error) {
	if q == nil || q.reader == nil {
		return nil, missingReader("session")
	}
	sessions, err := q.reader.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Session, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type GetSessionQuery struct {
	reader SessionReader
}

func NewGetSessionQuery(reader SessionReader) *GetSessionQuery {
	return &GetSessionQuery{reader: reader}
}

func (q *GetSessionQuery) Query(ctx context.Context, msg GetSessionMessage) (core.Session, error) {
	if q == nil || q.reader == nil {
		return core.Session{}, missingReader("session")
	}
	if err := msg.Validate(); err != nil {
		return core.Session{}, err
	}
	session, ok, err := q.reader.Session(ctx, msg.SessionID)
	if err != nil {
		return core.Session{}, err
	}
	if !ok {
		return core.Session{}, noSession(msg.SessionID)
	}
	return session, nil
}

type AuthorizeStatusQuery struct {
	reader AuthorizeStatusReader
}

func NewAuthorizeStatusQuery(reader AuthorizeStatusReader) *AuthorizeStatusQuery {
	return &AuthorizeStatusQuery{reader: reader}
}

func (q *AuthorizeStatusQuery) Query(_ context.Context, _ AuthorizeStatusMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, missingReader("authorize status")
	}
	return q.reader.IsAuthorizeInProgress(), nil
}

type MonitorStatusQuery struct {
	reader MonitorStatusReader
}

func NewMonitorStatusQuery(reader MonitorStatusReader) *MonitorStatusQuery {
	return &MonitorStatusQuery{reader: reader}
}

func (q *MonitorStatusQuery) Query(_ context.Context, _ MonitorStatusMessage) (core.MonitorStatus, error) {
	if q == nil || q.reader == nil {
		return core.MonitorStatus{}, missingReader("monitor status")
	}
	return q.reader.MonitorStatus(), nil
}
