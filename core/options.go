package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

const EnvPrefix = "TWITTERKIT_"

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig   Config
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

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithSessionManager(manager SessionManager) Option {
	return func(b *serviceBuilder) {
		b.sessionManager = manager
	}
}

func WithHTTPDoer(doer HTTPDoer) Option {
	return func(b *serviceBuilder) {
		b.httpDoer = doer
	}
}

func WithWorkScheduler(scheduler WorkScheduler) Option {
	return func(b *serviceBuilder) {
		b.workScheduler = scheduler
	}
}

func WithTelemetrySink(sink TelemetrySink) Option {
	return func(b *serviceBuilder) {
		b.telemetrySink = sink
	}
}

func WithNow(now func() time.Time) Option {
	return func(b *serviceBuilder) {
		b.now = now
	}
}

func WithNonceSource(nonce func() string) Option {
	return func(b *serviceBuilder) {
		b.nonce = nonce
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve(DefaultServiceName, nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     MapError,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		now:             func() time.Time { return time.Now().UTC() },
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

func NewStaticConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

// EnvConfigLoader reads TWITTERKIT_<KEY> variables for every config key.
type EnvConfigLoader struct {
	Prefix string
	Lookup func(key string) (string, bool)
}

func (l EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	prefix := l.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	raw := map[string]any{}
	for _, key := range configKeys {
		value, ok := lookup(prefix + strings.ToUpper(key))
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		raw[key] = strings.TrimSpace(value)
	}
	return raw, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

// Load decodes the raw layer over defaults. Credentials usually arrive in
// the runtime layer, so validation runs after the final merge.
func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	resolved = resolved.Normalized()
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

var configKeys = []string{
	"service_name",
	"consumer_key",
	"consumer_secret",
	"api_host",
	"app_scheme",
	"sdk_version",
	"user_agent_client",
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	values := map[string]string{
		"service_name":      cfg.ServiceName,
		"consumer_key":      cfg.ConsumerKey,
		"consumer_secret":   cfg.ConsumerSecret,
		"api_host":          cfg.APIHost,
		"app_scheme":        cfg.AppScheme,
		"sdk_version":       cfg.SDKVersion,
		"user_agent_client": cfg.UserAgentClient,
	}
	layer := map[string]any{}
	for _, key := range configKeys {
		value := strings.TrimSpace(values[key])
		if includeZero || value != "" {
			layer[key] = value
		}
	}
	return layer
}
