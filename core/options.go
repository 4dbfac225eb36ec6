package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
	"github.com/joeshaw/envdecode"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

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
		loader = StaticRawConfigLoader{}
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

// GoOptionsResolver layers defaults < loaded < runtime values. Zero values in
// the loaded and runtime layers do not override lower layers.
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
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// ResolveConfig loads configuration through provider and merges it with the
// runtime overrides on top of DefaultConfig.
func ResolveConfig(ctx context.Context, runtime Config, provider ConfigProvider, resolver OptionsResolver) (Config, error) {
	defaults := DefaultConfig()
	if provider == nil {
		provider = NewCfgxConfigProvider(nil)
	}
	if resolver == nil {
		resolver = GoOptionsResolver{}
	}
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return Config{}, fmt.Errorf("core: load config: %w", err)
	}
	return resolver.Resolve(defaults, loaded, runtime)
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(target map[string]any, key, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			target[key] = value
		}
	}
	setInt := func(target map[string]any, key string, value int64) {
		if includeZero || value != 0 {
			target[key] = value
		}
	}

	setString(layer, "service_name", cfg.ServiceName)
	setString(layer, "environment", string(cfg.Environment))
	setString(layer, "origin", cfg.Origin)

	request := map[string]any{}
	setString(request, "content_type", cfg.Request.ContentType)
	setString(request, "accept", cfg.Request.Accept)
	setString(request, "data_type", cfg.Request.DataType)
	setInt(request, "timeout_ms", int64(cfg.Request.TimeoutMS))
	setInt(request, "max_response_body_bytes", cfg.Request.MaxResponseBodyBytes)
	if len(request) > 0 {
		layer["request"] = request
	}

	forceUpdate := map[string]any{}
	setInt(forceUpdate, "status_code", int64(cfg.ForceUpdate.StatusCode))
	setString(forceUpdate, "marker", cfg.ForceUpdate.Marker)
	setInt(forceUpdate, "max_retries", int64(cfg.ForceUpdate.MaxRetries))
	if len(forceUpdate) > 0 {
		layer["force_update"] = forceUpdate
	}

	refresh := map[string]any{}
	setInt(refresh, "status_code", int64(cfg.Refresh.StatusCode))
	setString(refresh, "token_url", cfg.Refresh.TokenURL)
	setString(refresh, "client_id", cfg.Refresh.ClientID)
	setString(refresh, "client_secret", cfg.Refresh.ClientSecret)
	if includeZero || cfg.Refresh.ClientSecretInBody {
		refresh["client_secret_in_body"] = cfg.Refresh.ClientSecretInBody
	}
	if len(refresh) > 0 {
		layer["refresh"] = refresh
	}
	return layer
}

// envConfig mirrors Config as APICLIENT_* environment variables. Values are
// kept as strings so unset variables never override lower layers.
type envConfig struct {
	ServiceName          string `env:"APICLIENT_SERVICE_NAME"`
	Environment          string `env:"APICLIENT_ENVIRONMENT"`
	Origin               string `env:"APICLIENT_ORIGIN"`
	ContentType          string `env:"APICLIENT_REQUEST_CONTENT_TYPE"`
	Accept               string `env:"APICLIENT_REQUEST_ACCEPT"`
	DataType             string `env:"APICLIENT_REQUEST_DATA_TYPE"`
	TimeoutMS            string `env:"APICLIENT_REQUEST_TIMEOUT_MS"`
	MaxResponseBodyBytes string `env:"APICLIENT_REQUEST_MAX_RESPONSE_BODY_BYTES"`
	ForceUpdateStatus    string `env:"APICLIENT_FORCE_UPDATE_STATUS_CODE"`
	ForceUpdateMarker    string `env:"APICLIENT_FORCE_UPDATE_MARKER"`
	ForceUpdateRetries   string `env:"APICLIENT_FORCE_UPDATE_MAX_RETRIES"`
	RefreshStatus        string `env:"APICLIENT_REFRESH_STATUS_CODE"`
	TokenURL             string `env:"APICLIENT_REFRESH_TOKEN_URL"`
	ClientID             string `env:"APICLIENT_REFRESH_CLIENT_ID"`
	ClientSecret         string `env:"APICLIENT_REFRESH_CLIENT_SECRET"`
	ClientSecretInBody   string `env:"APICLIENT_REFRESH_CLIENT_SECRET_IN_BODY"`
}

// EnvConfigLoader reads raw configuration from APICLIENT_* environment
// variables.
type EnvConfigLoader struct{}

func (EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("core: decode environment: %w", err)
	}

	raw := map[string]any{}
	putString(raw, "service_name", env.ServiceName)
	putString(raw, "environment", env.Environment)
	putString(raw, "origin", env.Origin)

	request := map[string]any{}
	putString(request, "content_type", env.ContentType)
	putString(request, "accept", env.Accept)
	putString(request, "data_type", env.DataType)
	if err := putInt(request, "timeout_ms", env.TimeoutMS); err != nil {
		return nil, err
	}
	if err := putInt(request, "max_response_body_bytes", env.MaxResponseBodyBytes); err != nil {
		return nil, err
	}
	putSection(raw, "request", request)

	forceUpdate := map[string]any{}
	if err := putInt(forceUpdate, "status_code", env.ForceUpdateStatus); err != nil {
		return nil, err
	}
	putString(forceUpdate, "marker", env.ForceUpdateMarker)
	if err := putInt(forceUpdate, "max_retries", env.ForceUpdateRetries); err != nil {
		return nil, err
	}
	putSection(raw, "force_update", forceUpdate)

	refresh := map[string]any{}
	if err := putInt(refresh, "status_code", env.RefreshStatus); err != nil {
		return nil, err
	}
	putString(refresh, "token_url", env.TokenURL)
	putString(refresh, "client_id", env.ClientID)
	putString(refresh, "client_secret", env.ClientSecret)
	if value := strings.TrimSpace(env.ClientSecretInBody); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("core: refresh.client_secret_in_body: %w", err)
		}
		refresh["client_secret_in_body"] = parsed
	}
	putSection(raw, "refresh", refresh)
	return raw, nil
}

func putString(target map[string]any, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		target[key] = value
	}
}

func putInt(target map[string]any, key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("core: %s: %w", key, err)
	}
	target[key] = parsed
	return nil
}

func putSection(target map[string]any, key string, section map[string]any) {
	if len(section) > 0 {
		target[key] = section
	}
}
