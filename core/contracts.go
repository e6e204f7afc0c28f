package core

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// Signer attaches protocol authorization to an outbound request. A nil
// credential asks the signer to authorize as the application alone.
type Signer interface {
	Sign(ctx context.Context, req *http.Request, cred Credential) error
}

type TransportRequest struct {
	Method   string
	URL      string
	Headers  map[string]string
	Query    map[string]string
	Body     []byte
	Metadata map[string]any
	Timeout  time.Duration

	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type SessionStore interface {
	ActiveSession(ctx context.Context) (Session, bool, error)
	Sessions(ctx context.Context) (map[int64]Session, error)
}

type SessionManager interface {
	SessionStore
	Session(ctx context.Context, id int64) (Session, bool, error)
	SetActiveSession(ctx context.Context, session Session) error
	SetSession(ctx context.Context, session Session) error
	ClearActiveSession(ctx context.Context) error
	ClearSession(ctx context.Context, id int64) error
}

// KeyValueStore is the external persistence collaborator used by
// PersistedSessionStore.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// GuestCredentialProvider owns the app-only credential shared by guest
// requests.
type GuestCredentialProvider interface {
	CurrentCredential(ctx context.Context) (BearerCredential, error)
	RefreshCredential(ctx context.Context, expired BearerCredential) (BearerCredential, error)
}

// WorkScheduler runs slow background work off the caller's goroutine.
type WorkScheduler interface {
	Schedule(ctx context.Context, taskID string, task func(context.Context)) error
}

type WorkSchedulerFunc func(ctx context.Context, taskID string, task func(context.Context)) error

func (fn WorkSchedulerFunc) Schedule(ctx context.Context, taskID string, task func(context.Context)) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, taskID, task)
}

// VerifyCredentialsParams selects the optional fields of a credential check.
type VerifyCredentialsParams struct {
	IncludeEntities bool
	SkipStatus      bool
	IncludeEmail    bool
}

// AccountUser is the subset of the account payload the core reads.
type AccountUser struct {
	ID         int64  `json:"id"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
}

// AccountVerifier confirms that a session's credential is still accepted.
type AccountVerifier interface {
	VerifyCredentials(ctx context.Context, session Session, params VerifyCredentialsParams) (AccountUser, error)
}

// LoginChallenge is the first leg of a three-legged login: the temporary
// token and the URL the user must visit to approve it.
type LoginChallenge struct {
	TempToken        SignedPairCredential
	AuthorizationURL string
}

type CompleteLoginRequest struct {
	TempToken SignedPairCredential
	Verifier  string
	// Activate makes the new session the active one.
	Activate bool
}

// MonitorStatus is a point-in-time view of the verification scheduler.
type MonitorStatus struct {
	Verifying        bool      `json:"verifying"`
	LastVerification time.Time `json:"last_verification"`
}

// EventNamespace is the fixed-shape telemetry event emitted by the core.
type EventNamespace struct {
	Client    string `json:"client"`
	Page      string `json:"page"`
	Section   string `json:"section"`
	Component string `json:"component"`
	Element   string `json:"element"`
	Action    string `json:"action"`
}

type TelemetrySink interface {
	Emit(ctx context.Context, event EventNamespace)
}

type TelemetrySinkFunc func(ctx context.Context, event EventNamespace)

func (fn TelemetrySinkFunc) Emit(ctx context.Context, event EventNamespace) {
	if fn == nil {
		return
	}
	fn(ctx, event)
}

// LifecycleSource reports application foreground transitions.
type LifecycleSource interface {
	OnForeground(callback func())
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
