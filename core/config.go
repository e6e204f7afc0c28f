package core

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultServiceName     = "twitterkit"
	DefaultAPIHost         = "https://api.twitter.com"
	DefaultAppScheme       = "twittersdk"
	DefaultSDKVersion      = "3.3.0"
	DefaultUserAgentClient = "TwitterKitGo"
)

type Config struct {
	ServiceName     string `koanf:"service_name" mapstructure:"service_name"`
	ConsumerKey     string `koanf:"consumer_key" mapstructure:"consumer_key"`
	ConsumerSecret  string `koanf:"consumer_secret" mapstructure:"consumer_secret"`
	APIHost         string `koanf:"api_host" mapstructure:"api_host"`
	AppScheme       string `koanf:"app_scheme" mapstructure:"app_scheme"`
	SDKVersion      string `koanf:"sdk_version" mapstructure:"sdk_version"`
	UserAgentClient string `koanf:"user_agent_client" mapstructure:"user_agent_client"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:     DefaultServiceName,
		APIHost:         DefaultAPIHost,
		AppScheme:       DefaultAppScheme,
		SDKVersion:      DefaultSDKVersion,
		UserAgentClient: DefaultUserAgentClient,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.ConsumerKey) == "" || strings.TrimSpace(c.ConsumerSecret) == "" {
		return fmt.Errorf("core: consumer_key and consumer_secret are required")
	}
	host := strings.TrimSpace(c.APIHost)
	if host == "" {
		return fmt.Errorf("core: api_host is required")
	}
	parsed, err := url.Parse(host)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: api_host %q is invalid", host)
	}
	if strings.TrimSpace(c.AppScheme) == "" {
		return fmt.Errorf("core: app_scheme is required")
	}
	return nil
}

// Normalized returns a copy with surrounding whitespace removed and a host
// without trailing slash.
func (c Config) Normalized() Config {
	return Config{
		ServiceName:     strings.TrimSpace(c.ServiceName),
		ConsumerKey:     strings.TrimSpace(c.ConsumerKey),
		ConsumerSecret:  strings.TrimSpace(c.ConsumerSecret),
		APIHost:         strings.TrimRight(strings.TrimSpace(c.APIHost), "/"),
		AppScheme:       strings.TrimSpace(c.AppScheme),
		SDKVersion:      strings.TrimSpace(c.SDKVersion),
		UserAgentClient: strings.TrimSpace(c.UserAgentClient),
	}
}
