package twitterkit

import "github.com/goliatone/go-twitterkit/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Session = core.Session
type SignedPairCredential = core.SignedPairCredential
type BearerCredential = core.BearerCredential
type SessionManager = core.SessionManager
type WorkScheduler = core.WorkScheduler
type TelemetrySink = core.TelemetrySink
type LifecycleSource = core.LifecycleSource

type LoginChallenge = core.LoginChallenge
type CompleteLoginRequest = core.CompleteLoginRequest
type MonitorStatus = core.MonitorStatus

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorFactory    = core.WithErrorFactory
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithSessionManager  = core.WithSessionManager
	WithHTTPDoer        = core.WithHTTPDoer
	WithWorkScheduler   = core.WithWorkScheduler
	WithTelemetrySink   = core.WithTelemetrySink
	WithNow             = core.WithNow
	WithNonceSource     = core.WithNonceSource
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
