package query

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-twitterkit/core"
)

func seededStore(t *testing.T, ids ...int64) *core.MemorySessionStore {
	t.Helper()
	store := core.NewMemorySessionStore()
	for _, id := range ids {
		session, err := core.NewUserSession(core.SignedPairCredential{Token: "token", Secret: "secret"}, id, "user")
		if err != nil {
			t.Fatalf("new session: %v", err)
		}
		if err := store.SetSession(context.Background(), session); err != nil {
			t.Fatalf("set session: %v", err)
		}
	}
	return store
}

func TestActiveSessionQuery_ReturnsActive(t *testing.T) {
	store := seededStore(t, 3)
	session, _, _ := store.Session(context.Background(), 3)
	if err := store.SetActiveSession(context.Background(), session); err != nil {
		t.Fatalf("set active: %v", err)
	}

	got, err := NewActiveSessionQuery(store).Query(context.Background(), ActiveSessionMessage{})
	if err != nil {
		t.Fatalf("query active session: %v", err)
	}
	if got.ID != 3 {
		t.Fatalf("expected session 3, got %d", got.ID)
	}
}

func TestListSessionsQuery_OrdersByID(t *testing.T) {
	got, err := NewListSessionsQuery(seededStore(t, 9, 2, 5)).Query(context.Background(), ListSessionsMessage{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(got) != 3 || got[0].ID != 2 || got[1].ID != 5 || got[2].ID != 9 {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestGetSessionQuery(t *testing.T) {
	qry := NewGetSessionQuery(seededStore(t, 4))
	got, err := qry.Query(context.Background(), GetSessionMessage{SessionID: 4})
	if err != nil || got.ID != 4 {
		t.Fatalf("expected session 4, got %+v err=%v", got, err)
	}
	if _, err := qry.Query(context.Background(), GetSessionMessage{SessionID: 99}); err == nil {
		t.Fatalf("expected missing session to fail")
	}
}

type stubAuthorizeStatus bool

func (s stubAuthorizeStatus) IsAuthorizeInProgress() bool { return bool(s) }

type stubMonitorStatus core.MonitorStatus

func (s stubMonitorStatus) MonitorStatus() core.MonitorStatus { return core.MonitorStatus(s) }

func TestStatusQueries(t *testing.T) {
	inProgress, err := NewAuthorizeStatusQuery(stubAuthorizeStatus(true)).Query(context.Background(), AuthorizeStatusMessage{})
	if err != nil || !inProgress {
		t.Fatalf("expected authorize in progress, got %v err=%v", inProgress, err)
	}

	last := time.Date(2015, 1, 23, 12, 0, 1, 0, time.UTC)
	status, err := NewMonitorStatusQuery(stubMonitorStatus{LastVerification: last}).Query(context.Background(), MonitorStatusMessage{})
	if err != nil {
		t.Fatalf("monitor status: %v", err)
	}
	if status.Verifying || !status.LastVerification.Equal(last) {
		t.Fatalf("unexpected status %+v", status)
	}
}
