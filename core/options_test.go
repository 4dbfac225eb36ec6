package core

import (
	"context"
	"testing"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate: %v", err)
	}
	if cfg.ForceUpdate.StatusCode != 403 || cfg.ForceUpdate.MaxRetries != 3 || cfg.ForceUpdate.Marker != "unsupported_version" {
		t.Fatalf("unexpected force update defaults: %#v", cfg.ForceUpdate)
	}
	if cfg.Refresh.StatusCode != 401 {
		t.Fatalf("expected refresh status 401, got %d", cfg.Refresh.StatusCode)
	}
	if cfg.Request.ContentType != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type default %q", cfg.Request.ContentType)
	}
}

func TestConfigValidate_RejectsInvalidValues(t *testing.T) {
	tests := map[string]func(*Config){
		"service name": func(c *Config) { c.ServiceName = " " },
		"environment":  func(c *Config) { c.Environment = "browser" },
		"origin":       func(c *Config) { c.Origin = "example.com" },
		"retries":      func(c *Config) { c.ForceUpdate.MaxRetries = -1 },
		"status":       func(c *Config) { c.Refresh.StatusCode = 42 },
		"token url":    func(c *Config) { c.Refresh.TokenURL = "/token" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestCfgxConfigProvider_LoadsRawValues(t *testing.T) {
	provider := NewCfgxConfigProvider(StaticRawConfigLoader{Values: map[string]any{
		"service_name": "mobile",
		"environment":  "hosted",
		"origin":       "https://app.example.com",
		"force_update": map[string]any{"max_retries": 5},
	}})
	cfg, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "mobile" || cfg.Environment != EnvironmentHosted {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if cfg.ForceUpdate.MaxRetries != 5 {
		t.Fatalf("expected max retries 5, got %d", cfg.ForceUpdate.MaxRetries)
	}
	if cfg.ForceUpdate.Marker != DefaultForceUpdateMarker {
		t.Fatalf("expected default marker to survive, got %q", cfg.ForceUpdate.Marker)
	}
}

func TestCfgxConfigProvider_RejectsInvalidConfig(t *testing.T) {
	provider := NewCfgxConfigProvider(StaticRawConfigLoader{Values: map[string]any{
		"environment": "browser",
	}})
	if _, err := provider.Load(context.Background(), DefaultConfig()); err == nil {
		t.Fatalf("expected invalid environment to fail")
	}
}

func TestGoOptionsResolver_RuntimeOverridesLoaded(t *testing.T) {
	loaded := Config{ServiceName: "from-config", Origin: "https://config.example.com"}
	runtime := Config{ServiceName: "from-runtime"}
	cfg, err := GoOptionsResolver{}.Resolve(DefaultConfig(), loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime service name, got %q", cfg.ServiceName)
	}
	if cfg.Origin != "https://config.example.com" {
		t.Fatalf("expected loaded origin to survive, got %q", cfg.Origin)
	}
	if cfg.Environment != EnvironmentStandalone {
		t.Fatalf("expected default environment, got %q", cfg.Environment)
	}
	if cfg.ForceUpdate.MaxRetries != DefaultForceUpdateRetries {
		t.Fatalf("expected default retries, got %d", cfg.ForceUpdate.MaxRetries)
	}
}

func TestResolveConfig_UsesEnvironmentLoader(t *testing.T) {
	t.Setenv("APICLIENT_SERVICE_NAME", "env-service")
	t.Setenv("APICLIENT_FORCE_UPDATE_MAX_RETRIES", "2")
	t.Setenv("APICLIENT_REFRESH_CLIENT_SECRET_IN_BODY", "true")

	cfg, err := ResolveConfig(context.Background(), Config{}, NewCfgxConfigProvider(EnvConfigLoader{}), nil)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.ServiceName != "env-service" {
		t.Fatalf("expected env service name, got %q", cfg.ServiceName)
	}
	if cfg.ForceUpdate.MaxRetries != 2 {
		t.Fatalf("expected env retries 2, got %d", cfg.ForceUpdate.MaxRetries)
	}
	if !cfg.Refresh.ClientSecretInBody {
		t.Fatalf("expected client secret in body from env")
	}
}

func TestEnvConfigLoader_RejectsMalformedNumbers(t *testing.T) {
	t.Setenv("APICLIENT_REQUEST_TIMEOUT_MS", "soon")
	if _, err := (EnvConfigLoader{}).LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected malformed timeout to fail")
	}
}
