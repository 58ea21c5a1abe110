package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultAuthURL is the production token endpoint. Override with
	// PRISMASASE_AUTH_URL or the config file for staging tenants and tests.
	DefaultAuthURL = "https://auth.apps.paloaltonetworks.com/oauth2/access_token"
	// DefaultBaseAPIURL fronts the SD-WAN resource endpoints.
	DefaultBaseAPIURL = "https://api.sase.paloaltonetworks.com"

	defaultRequestTimeout  = 30 * time.Second
	defaultMonitorInterval = 5 * time.Minute
	defaultPageLimit       = 200
)

// MonitorConfig controls the periodic status monitor.
type MonitorConfig struct {
	Interval time.Duration `koanf:"interval" mapstructure:"interval"`
	// MaxRuns stops the monitor after N cycles; zero means run until the
	// context is cancelled.
	MaxRuns int `koanf:"max_runs" mapstructure:"max_runs"`
}

// PersistenceConfig selects the snapshot store backend. Driver is "sqlite" or
// "postgres"; an empty DSN disables persistence.
type PersistenceConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
}

// Config is the process-wide runtime configuration. Credentials are not part
// of it; they come from the environment through the auth resolver so secrets
// never land in config files.
type Config struct {
	AuthURL        string            `koanf:"auth_url" mapstructure:"auth_url"`
	BaseAPIURL     string            `koanf:"base_api_url" mapstructure:"base_api_url"`
	Region         string            `koanf:"region" mapstructure:"region"`
	RequestTimeout time.Duration     `koanf:"request_timeout" mapstructure:"request_timeout"`
	PageLimit      int               `koanf:"page_limit" mapstructure:"page_limit"`
	Monitor        MonitorConfig     `koanf:"monitor" mapstructure:"monitor"`
	Persistence    PersistenceConfig `koanf:"persistence" mapstructure:"persistence"`
}

// DefaultConfig returns the production baseline.
func DefaultConfig() Config {
	return Config{
		AuthURL:        DefaultAuthURL,
		BaseAPIURL:     DefaultBaseAPIURL,
		RequestTimeout: defaultRequestTimeout,
		PageLimit:      defaultPageLimit,
		Monitor: MonitorConfig{
			Interval: defaultMonitorInterval,
		},
		Persistence: PersistenceConfig{
			Driver: "sqlite",
		},
	}
}

// Validate ensures the configuration is dispatchable.
func (c Config) Validate() error {
	if err := validateURL("auth_url", c.AuthURL); err != nil {
		return err
	}
	if err := validateURL("base_api_url", c.BaseAPIURL); err != nil {
		return err
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("core: request_timeout must be >= 0")
	}
	if c.PageLimit <= 0 {
		return fmt.Errorf("core: page_limit must be > 0")
	}
	if c.Monitor.Interval < 0 {
		return fmt.Errorf("core: monitor.interval must be >= 0")
	}
	switch strings.ToLower(strings.TrimSpace(c.Persistence.Driver)) {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("core: persistence.driver %q is not supported", c.Persistence.Driver)
	}
	return nil
}

func validateURL(field string, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("core: %s is required", field)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: %s %q is not an absolute url", field, value)
	}
	return nil
}
