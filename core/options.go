package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// RawConfigLoader supplies configuration values before typing. File loaders,
// env mappers, and test fixtures all satisfy this.
type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	return l.Values, nil
}

// NewStaticRawConfigLoader wraps fixed values, mostly for tests.
func NewStaticRawConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

// CfgxConfigProvider builds a typed Config from a raw loader through
// go-config.
type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

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
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveConfig merges defaults, file-loaded values, and runtime overrides in
// ascending precedence through a go-options layer stack.
func ResolveConfig(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
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
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.AuthURL) != "" {
		layer["auth_url"] = cfg.AuthURL
	}
	if includeZero || strings.TrimSpace(cfg.BaseAPIURL) != "" {
		layer["base_api_url"] = cfg.BaseAPIURL
	}
	if includeZero || strings.TrimSpace(cfg.Region) != "" {
		layer["region"] = cfg.Region
	}
	if includeZero || cfg.RequestTimeout != 0 {
		layer["request_timeout"] = cfg.RequestTimeout
	}
	if includeZero || cfg.PageLimit != 0 {
		layer["page_limit"] = cfg.PageLimit
	}
	monitor := map[string]any{}
	if includeZero || cfg.Monitor.Interval != 0 {
		monitor["interval"] = cfg.Monitor.Interval
	}
	if includeZero || cfg.Monitor.MaxRuns != 0 {
		monitor["max_runs"] = cfg.Monitor.MaxRuns
	}
	if len(monitor) > 0 {
		layer["monitor"] = monitor
	}
	persistence := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Persistence.Driver) != "" {
		persistence["driver"] = cfg.Persistence.Driver
	}
	if includeZero || strings.TrimSpace(cfg.Persistence.DSN) != "" {
		persistence["dsn"] = cfg.Persistence.DSN
	}
	if len(persistence) > 0 {
		layer["persistence"] = persistence
	}
	return layer
}
