package monitor

import (
	"context"
	"fmt"
	"sort"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
	"github.com/oklog/ulid/v2"
)

// TaskVerifySessions is the task id used when a sweep is scheduled.
const TaskVerifySessions = "twitterkit.verify_sessions"

// Verifier checks a single session.
type Verifier interface {
	VerifySession(ctx context.Context, session core.Session)
}

type VerifierFunc func(ctx context.Context, session core.Session)

func (fn VerifierFunc) VerifySession(ctx context.Context, session core.Session) {
	if fn != nil {
		fn(ctx, session)
	}
}

type SessionMonitorConfig struct {
	Sessions  core.SessionStore
	Verifier  Verifier
	Scheduler core.WorkScheduler
	State     *MonitorState
	Now       func() time.Time
	Logger    core.Logger
	Metrics   core.MetricsRecorder
}

// SessionMonitor schedules verification sweeps over every stored session.
type SessionMonitor struct {
	sessions  core.SessionStore
	verifier  Verifier
	scheduler core.WorkScheduler
	state     *MonitorState
	now       func() time.Time
	observer  core.Observer
}

func NewSessionMonitor(cfg SessionMonitorConfig) (*SessionMonitor, error) {
	if cfg.Sessions == nil {
		return nil, core.NewError("monitor: session store is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	if cfg.Verifier == nil {
		return nil, core.NewError("monitor: session verifier is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = GoroutineScheduler{}
	}
	state := cfg.State
	if state == nil {
		state = NewMonitorState()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &SessionMonitor{
		sessions:  cfg.Sessions,
		verifier:  cfg.Verifier,
		scheduler: scheduler,
		state:     state,
		now:       now,
		observer:  core.NewObserver(cfg.Logger, cfg.Metrics),
	}, nil
}

func (m *SessionMonitor) State() *MonitorState {
	return m.state
}

// TriggerVerificationIfNecessary schedules a sweep when there is an active
// session and the state allows one. It reports whether a sweep was scheduled.
func (m *SessionMonitor) TriggerVerificationIfNecessary(ctx context.Context) bool {
	if _, ok, err := m.sessions.ActiveSession(ctx); err != nil || !ok {
		if err != nil {
			m.observer.Warn(ctx, "session monitor could not read active session", map[string]any{"error": err.Error()})
		}
		return false
	}
	if !m.state.BeginVerification(m.now()) {
		return false
	}

	sweepID := ulid.Make().String()
	err := m.scheduler.Schedule(ctx, TaskVerifySessions, func(taskCtx context.Context) {
		m.verifyAll(taskCtx, sweepID)
	})
	if err != nil {
		m.state.CancelVerification()
		m.observer.Warn(ctx, "session monitor could not schedule sweep", map[string]any{
			"sweep_id": sweepID,
			"error":    err.Error(),
		})
		return false
	}
	m.observer.IncCounter(ctx, "session_monitor.scheduled", 1, nil)
	return true
}

// VerifyAll verifies every stored session and records the sweep.
func (m *SessionMonitor) VerifyAll(ctx context.Context) {
	m.verifyAll(ctx, ulid.Make().String())
}

func (m *SessionMonitor) verifyAll(ctx context.Context, sweepID string) {
	startedAt := time.Now()
	defer func() {
		m.state.EndVerification(m.now())
	}()

	sessions, err := m.sessions.Sessions(ctx)
	if err != nil {
		m.observer.ObserveOperation(ctx, startedAt, "verify_all", err, map[string]any{"sweep_id": sweepID})
		return
	}

	ids := make([]int64, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	failed := 0
	for _, id := range ids {
		if err := m.verifyOne(ctx, sessions[id]); err != nil {
			failed++
			m.observer.Error(ctx, "session verification panicked", map[string]any{
				"sweep_id":   sweepID,
				"session_id": id,
				"error":      err.Error(),
			})
		}
	}

	m.observer.ObserveOperation(ctx, startedAt, "verify_all", nil, map[string]any{
		"sweep_id": sweepID,
		"sessions": len(ids),
		"failed":   failed,
	})
}

func (m *SessionMonitor) verifyOne(ctx context.Context, session core.Session) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = core.NewError(fmt.Sprintf("monitor: verify session panicked: %v", recovered), goerrors.CategoryInternal, core.ErrorInternal)
		}
	}()
	m.verifier.VerifySession(ctx, session)
	return nil
}

// MonitorActivityLifecycle triggers verification each time source reports a
// foreground transition.
func (m *SessionMonitor) MonitorActivityLifecycle(source core.LifecycleSource) {
	if source == nil {
		return
	}
	source.OnForeground(func() {
		m.TriggerVerificationIfNecessary(context.Background())
	})
}
