package core

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestNewService_DefaultDependencies(t *testing.T) {
	svc, err := NewService(Config{ConsumerKey: "key", ConsumerSecret: "secret"})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if deps.Logger == nil {
		t.Fatalf("expected default logger")
	}
	if deps.LoggerProvider == nil {
		t.Fatalf("expected default logger provider")
	}
	if deps.ErrorFactory == nil {
		t.Fatalf("expected default error factory")
	}
	if deps.ErrorMapper == nil {
		t.Fatalf("expected default error mapper")
	}
	if deps.SessionManager == nil {
		t.Fatalf("expected default in-memory session manager")
	}
	if deps.Now == nil {
		t.Fatalf("expected default clock")
	}

	cfg := svc.Config()
	if cfg.ServiceName != DefaultServiceName {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.APIHost != DefaultAPIHost {
		t.Fatalf("expected default api host, got %q", cfg.APIHost)
	}
	if cfg.AppScheme != DefaultAppScheme {
		t.Fatalf("expected default app scheme, got %q", cfg.AppScheme)
	}
	if cfg.ConsumerKey != "key" || cfg.ConsumerSecret != "secret" {
		t.Fatalf("expected runtime credentials to survive the merge, got %+v", cfg)
	}
}

func TestNewService_MissingConsumerCredentialsFails(t *testing.T) {
	_, err := NewService(Config{})
	if err == nil {
		t.Fatalf("expected missing consumer key to fail")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected rich error, got %T", err)
	}
	if richErr.TextCode != ErrorConfigurationFail {
		t.Fatalf("expected configuration text code, got %q", richErr.TextCode)
	}
}

func TestNewService_WhitespaceConsumerSecretFails(t *testing.T) {
	if _, err := NewService(Config{ConsumerKey: "key", ConsumerSecret: "   "}); err == nil {
		t.Fatalf("expected blank consumer secret to fail")
	}
}

func TestNewService_WithOverrides(t *testing.T) {
	customLogger := stubLogger{}
	customProvider := stubLoggerProvider{logger: customLogger}
	customFactory := func(message string, category ...goerrors.Category) *goerrors.Error {
		return goerrors.New("custom:"+message, category...)
	}
	sentinel := errors.New("sentinel")
	customMapper := func(error) *goerrors.Error {
		return goerrors.Wrap(sentinel, goerrors.CategoryOperation, "mapped")
	}
	configProvider := &fixedConfigProvider{cfg: validTestConfig()}
	resolved := validTestConfig()
	resolved.ServiceName = "resolved"
	optionsResolver := &fixedOptionsResolver{cfg: resolved}
	sessions := NewMemorySessionStore()
	fixed := time.Date(2026, 2, 13, 15, 0, 0, 0, time.UTC)

	svc, err := NewService(validTestConfig(),
		WithLogger(customLogger),
		WithLoggerProvider(customProvider),
		WithErrorFactory(customFactory),
		WithErrorMapper(customMapper),
		WithConfigProvider(configProvider),
		WithOptionsResolver(optionsResolver),
		WithSessionManager(sessions),
		WithNow(func() time.Time { return fixed }),
		WithNonceSource(func() string { return "nonce" }),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	deps := svc.Dependencies()
	if deps.ConfigProvider != configProvider {
		t.Fatalf("expected config provider override")
	}
	if deps.OptionsResolver != optionsResolver {
		t.Fatalf("expected options resolver override")
	}
	if deps.SessionManager != sessions {
		t.Fatalf("expected session manager override")
	}
	if got := deps.Now(); !got.Equal(fixed) {
		t.Fatalf("expected clock override, got %s", got)
	}
	if got := deps.Nonce(); got != "nonce" {
		t.Fatalf("expected nonce override, got %q", got)
	}
	if svc.Config().ServiceName != "resolved" {
		t.Fatalf("expected resolved config, got %q", svc.Config().ServiceName)
	}
	if got := deps.ErrorFactory("boom").Message; got != "custom:boom" {
		t.Fatalf("expected custom error factory, got %q", got)
	}
	if mapped := svc.MapError(errors.New("x")); !errors.Is(mapped, sentinel) {
		t.Fatalf("expected custom mapper to be used")
	}
}

func TestGoOptionsResolver_RuntimeOverridesLoaded(t *testing.T) {
	defaults := DefaultConfig()
	loaded := defaults
	loaded.ConsumerKey = "loaded-key"
	loaded.ConsumerSecret = "loaded-secret"
	loaded.APIHost = "https://loaded.example.com/"

	runtime := Config{ConsumerKey: "  runtime-key  "}

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ConsumerKey != "runtime-key" {
		t.Fatalf("expected runtime key to win, got %q", resolved.ConsumerKey)
	}
	if resolved.ConsumerSecret != "loaded-secret" {
		t.Fatalf("expected loaded secret, got %q", resolved.ConsumerSecret)
	}
	if resolved.APIHost != "https://loaded.example.com" {
		t.Fatalf("expected normalized loaded host, got %q", resolved.APIHost)
	}
	if resolved.SDKVersion != DefaultSDKVersion {
		t.Fatalf("expected default sdk version, got %q", resolved.SDKVersion)
	}
}

func TestCfgxConfigProvider_LoadsRawValues(t *testing.T) {
	provider := NewCfgxConfigProvider(NewStaticConfigLoader(map[string]any{
		"consumer_key":    "raw-key",
		"consumer_secret": "raw-secret",
		"app_scheme":      "myapp",
	}))
	cfg, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConsumerKey != "raw-key" || cfg.AppScheme != "myapp" {
		t.Fatalf("unexpected loaded config: %+v", cfg)
	}
	if cfg.APIHost != DefaultAPIHost {
		t.Fatalf("expected default host to be kept, got %q", cfg.APIHost)
	}
}

func TestEnvConfigLoader_ReadsPrefixedVariables(t *testing.T) {
	env := map[string]string{
		"TWITTERKIT_CONSUMER_KEY":    "env-key",
		"TWITTERKIT_CONSUMER_SECRET": " env-secret ",
		"TWITTERKIT_APP_SCHEME":      "",
	}
	loader := EnvConfigLoader{Lookup: func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}}
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if raw["consumer_key"] != "env-key" {
		t.Fatalf("expected consumer key, got %v", raw["consumer_key"])
	}
	if raw["consumer_secret"] != "env-secret" {
		t.Fatalf("expected trimmed consumer secret, got %v", raw["consumer_secret"])
	}
	if _, ok := raw["app_scheme"]; ok {
		t.Fatalf("expected blank variables to be skipped")
	}
}

func TestConfigValidate_RejectsInvalidHost(t *testing.T) {
	cfg := validTestConfig()
	cfg.APIHost = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid host to fail validation")
	}
}
