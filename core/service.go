package core

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service holds the resolved configuration and the ambient collaborators
// shared by every component built from one Config.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	sessionManager  SessionManager
	httpDoer        HTTPDoer
	workScheduler   WorkScheduler
	telemetrySink   TelemetrySink
	now             func() time.Time
	nonce           func() string
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	SessionManager  SessionManager
	HTTPDoer        HTTPDoer
	WorkScheduler   WorkScheduler
	TelemetrySink   TelemetrySink
	Now             func() time.Time
	Nonce           func() string
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve(DefaultServiceName, builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(DefaultServiceName); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = MapError
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.sessionManager == nil {
		builder.sessionManager = NewMemorySessionStore()
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		sessionManager:  builder.sessionManager,
		httpDoer:        builder.httpDoer,
		workScheduler:   builder.workScheduler,
		telemetrySink:   builder.telemetrySink,
		now:             builder.now,
		nonce:           builder.nonce,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	mapped.TextCode = ErrorConfigurationFail
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

// Logger returns a named child logger when a provider is configured.
func (s *Service) Logger(name string) Logger {
	if s == nil {
		return glog.Nop()
	}
	if s.loggerProvider != nil && name != "" {
		if named := s.loggerProvider.GetLogger(name); named != nil {
			return glog.Ensure(named)
		}
	}
	return glog.Ensure(s.logger)
}

func (s *Service) Observer(name string) Observer {
	if s == nil {
		return NewObserver(nil, nil)
	}
	return NewObserver(s.Logger(name), s.metricsRecorder)
}

func (s *Service) MapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		SessionManager:  s.sessionManager,
		HTTPDoer:        s.httpDoer,
		WorkScheduler:   s.workScheduler,
		TelemetrySink:   s.telemetrySink,
		Now:             s.now,
		Nonce:           s.nonce,
	}
}
