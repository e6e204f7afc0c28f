package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-twitterkit/core"
)

type recordingScheduler struct {
	mu     sync.Mutex
	taskID string
	tasks  []func(context.Context)
	err    error
}

func (s *recordingScheduler) Schedule(_ context.Context, taskID string, task func(context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.taskID = taskID
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *recordingScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

type recordingVerifier struct {
	mu       sync.Mutex
	verified []int64
	panicOn  int64
}

func (v *recordingVerifier) VerifySession(_ context.Context, session core.Session) {
	v.mu.Lock()
	v.verified = append(v.verified, session.ID)
	v.mu.Unlock()
	if v.panicOn != 0 && session.ID == v.panicOn {
		panic("verifier exploded")
	}
}

func newStoreWithSessions(t *testing.T, active bool, ids ...int64) *core.MemorySessionStore {
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
		if active {
			if err := store.SetActiveSession(context.Background(), session); err != nil {
				t.Fatalf("set active session: %v", err)
			}
			active = false
		}
	}
	return store
}

func newTestMonitor(t *testing.T, store core.SessionStore, verifier Verifier, scheduler core.WorkScheduler, now time.Time) *SessionMonitor {
	t.Helper()
	monitor, err := NewSessionMonitor(SessionMonitorConfig{
		Sessions:  store,
		Verifier:  verifier,
		Scheduler: scheduler,
		Now:       func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	return monitor
}

func TestSessionMonitor_RespectsFalseBeginVerification(t *testing.T) {
	scheduler := &recordingScheduler{}
	monitor := newTestMonitor(t, newStoreWithSessions(t, true, 1), &recordingVerifier{}, scheduler, time1200UTC)
	monitor.State().cell.Store(monitorSnapshot{startedAt: time1200UTC, verifying: true})

	if monitor.TriggerVerificationIfNecessary(context.Background()) {
		t.Fatalf("expected no trigger while verifying")
	}
	if scheduler.count() != 0 {
		t.Fatalf("expected no scheduler interaction")
	}
}

func TestSessionMonitor_DoesNotTriggerWithoutActiveSession(t *testing.T) {
	scheduler := &recordingScheduler{}
	monitor := newTestMonitor(t, newStoreWithSessions(t, false, 1), &recordingVerifier{}, scheduler, time1200UTC)

	if monitor.TriggerVerificationIfNecessary(context.Background()) {
		t.Fatalf("expected no trigger without active session")
	}
	if scheduler.count() != 0 {
		t.Fatalf("expected no scheduler interaction")
	}
	if monitor.State().IsVerifying() {
		t.Fatalf("expected state to stay idle")
	}
}

func TestSessionMonitor_SubmitsTaskThatVerifies(t *testing.T) {
	scheduler := &recordingScheduler{}
	verifier := &recordingVerifier{}
	monitor := newTestMonitor(t, newStoreWithSessions(t, true, 1), verifier, scheduler, time1200UTC)

	if !monitor.TriggerVerificationIfNecessary(context.Background()) {
		t.Fatalf("expected trigger")
	}
	if scheduler.count() != 1 || scheduler.taskID != TaskVerifySessions {
		t.Fatalf("expected one scheduled sweep, got %d (%q)", scheduler.count(), scheduler.taskID)
	}
	if monitor.TriggerVerificationIfNecessary(context.Background()) {
		t.Fatalf("expected second trigger to be rejected while sweep is pending")
	}

	scheduler.tasks[0](context.Background())
	if len(verifier.verified) != 1 || verifier.verified[0] != 1 {
		t.Fatalf("expected session 1 to be verified, got %v", verifier.verified)
	}
	if monitor.State().IsVerifying() {
		t.Fatalf("expected sweep to finish")
	}
}

func TestSessionMonitor_ScheduleFailureReleasesState(t *testing.T) {
	scheduler := &recordingScheduler{err: errors.New("queue full")}
	monitor := newTestMonitor(t, newStoreWithSessions(t, true, 1), &recordingVerifier{}, scheduler, time1200UTC)

	if monitor.TriggerVerificationIfNecessary(context.Background()) {
		t.Fatalf("expected failed schedule to report false")
	}
	if monitor.State().IsVerifying() {
		t.Fatalf("expected state to be released")
	}
	if !monitor.State().LastVerification().IsZero() {
		t.Fatalf("expected no sweep to be recorded")
	}
}

func TestSessionMonitor_VerifyAllVerifiesEverySession(t *testing.T) {
	verifier := &recordingVerifier{}
	monitor := newTestMonitor(t, newStoreWithSessions(t, true, 1, 2), verifier, &recordingScheduler{}, time1200UTC)

	monitor.VerifyAll(context.Background())
	if len(verifier.verified) != 2 {
		t.Fatalf("expected two verifications, got %v", verifier.verified)
	}
}

func TestSessionMonitor_VerifyAllShouldNotImmediatelyReverify(t *testing.T) {
	monitor := newTestMonitor(t, newStoreWithSessions(t, true, 1), &recordingVerifier{}, &recordingScheduler{}, time1200UTC)

	monitor.VerifyAll(context.Background())
	if monitor.State().BeginVerification(time1200UTC.Add(time.Millisecond)) {
		t.Fatalf("expected no immediate reverification")
	}
}

func TestSessionMonitor_VerifyAllRecoversPanics(t *testing.T) {
	verifier := &recordingVerifier{panicOn: 1}
	monitor := newTestMonitor(t, newStoreWithSessions(t, true, 1, 2, 3), verifier, &recordingScheduler{}, time1200UTC)
	monitor.State().BeginVerification(time1200UTC)

	monitor.VerifyAll(context.Background())
	if len(verifier.verified) != 3 {
		t.Fatalf("expected every session to be attempted, got %v", verifier.verified)
	}
	if monitor.State().IsVerifying() {
		t.Fatalf("expected sweep to end after a panic")
	}
	if !monitor.State().LastVerification().Equal(time1200UTC) {
		t.Fatalf("expected sweep time to be recorded")
	}
}

func TestSessionMonitor_MonitorActivityLifecycle(t *testing.T) {
	scheduler := &recordingScheduler{}
	monitor := newTestMonitor(t, newStoreWithSessions(t, true, 1), &recordingVerifier{}, scheduler, time1200UTC)
	notifier := NewForegroundNotifier()

	monitor.MonitorActivityLifecycle(notifier)
	notifier.NotifyForeground()
	if scheduler.count() != 1 {
		t.Fatalf("expected foreground to trigger a sweep, got %d", scheduler.count())
	}
}

func TestGoroutineScheduler_DetachesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	if err := (GoroutineScheduler{}).Schedule(ctx, TaskVerifySessions, func(taskCtx context.Context) {
		done <- taskCtx.Err()
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected detached context, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("task did not run")
	}
}

func TestNewSessionMonitor_RequiresCollaborators(t *testing.T) {
	if _, err := NewSessionMonitor(SessionMonitorConfig{Verifier: &recordingVerifier{}}); err == nil {
		t.Fatalf("expected missing store to fail")
	}
	if _, err := NewSessionMonitor(SessionMonitorConfig{Sessions: core.NewMemorySessionStore()}); err == nil {
		t.Fatalf("expected missing verifier to fail")
	}
}

func TestSessionMonitor_DroppedSweepReleasesAfterLease(t *testing.T) {
	scheduler := &recordingScheduler{}
	var mu sync.Mutex
	now := time1200UTC
	monitor, err := NewSessionMonitor(SessionMonitorConfig{
		Sessions:  newStoreWithSessions(t, true, 1),
		Verifier:  &recordingVerifier{},
		Scheduler: scheduler,
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		},
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	ctx := context.Background()
	if !monitor.TriggerVerificationIfNecessary(ctx) {
		t.Fatalf("expected first trigger to schedule a sweep")
	}
	advance(30 * time.Minute)
	if monitor.TriggerVerificationIfNecessary(ctx) {
		t.Fatalf("expected the undelivered sweep to hold the claim")
	}
	advance(VerificationLease)
	if !monitor.TriggerVerificationIfNecessary(ctx) {
		t.Fatalf("expected the claim to expire after the lease")
	}
	if scheduler.count() != 2 {
		t.Fatalf("expected two scheduled sweeps, got %d", scheduler.count())
	}
}
