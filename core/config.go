package core

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultContentType        = "application/json; charset=utf-8"
	DefaultSenderContentType  = "application/json"
	DefaultAccept             = "application/json"
	DefaultDataType           = "json"
	DefaultForceUpdateMarker  = "unsupported_version"
	DefaultForceUpdateRetries = 3
)

type RequestConfig struct {
	ContentType          string `koanf:"content_type" mapstructure:"content_type"`
	Accept               string `koanf:"accept" mapstructure:"accept"`
	DataType             string `koanf:"data_type" mapstructure:"data_type"`
	TimeoutMS            int    `koanf:"timeout_ms" mapstructure:"timeout_ms"`
	MaxResponseBodyBytes int64  `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
}

type ForceUpdateConfig struct {
	StatusCode int    `koanf:"status_code" mapstructure:"status_code"`
	Marker     string `koanf:"marker" mapstructure:"marker"`
	MaxRetries int    `koanf:"max_retries" mapstructure:"max_retries"`
}

type RefreshConfig struct {
	StatusCode         int    `koanf:"status_code" mapstructure:"status_code"`
	TokenURL           string `koanf:"token_url" mapstructure:"token_url"`
	ClientID           string `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret       string `koanf:"client_secret" mapstructure:"client_secret"`
	ClientSecretInBody bool   `koanf:"client_secret_in_body" mapstructure:"client_secret_in_body"`
}

type Config struct {
	ServiceName string            `koanf:"service_name" mapstructure:"service_name"`
	Environment Environment       `koanf:"environment" mapstructure:"environment"`
	Origin      string            `koanf:"origin" mapstructure:"origin"`
	Request     RequestConfig     `koanf:"request" mapstructure:"request"`
	ForceUpdate ForceUpdateConfig `koanf:"force_update" mapstructure:"force_update"`
	Refresh     RefreshConfig     `koanf:"refresh" mapstructure:"refresh"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "apiclient",
		Environment: EnvironmentStandalone,
		Request: RequestConfig{
			ContentType:          DefaultContentType,
			Accept:               DefaultAccept,
			DataType:             DefaultDataType,
			TimeoutMS:            30000,
			MaxResponseBodyBytes: 10 << 20,
		},
		ForceUpdate: ForceUpdateConfig{
			StatusCode: http.StatusForbidden,
			Marker:     DefaultForceUpdateMarker,
			MaxRetries: DefaultForceUpdateRetries,
		},
		Refresh: RefreshConfig{
			StatusCode: http.StatusUnauthorized,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if !c.Environment.Valid() {
		return fmt.Errorf("core: environment %q must be %q or %q", c.Environment, EnvironmentHosted, EnvironmentStandalone)
	}
	if origin := strings.TrimSpace(c.Origin); origin != "" {
		parsed, err := url.Parse(origin)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("core: origin %q must be an absolute url", origin)
		}
	}
	if c.Request.TimeoutMS < 0 {
		return fmt.Errorf("core: request.timeout_ms must be >= 0")
	}
	if c.Request.MaxResponseBodyBytes < 0 {
		return fmt.Errorf("core: request.max_response_body_bytes must be >= 0")
	}
	if c.ForceUpdate.MaxRetries < 0 {
		return fmt.Errorf("core: force_update.max_retries must be >= 0")
	}
	if c.ForceUpdate.StatusCode < 100 || c.ForceUpdate.StatusCode > 599 {
		return fmt.Errorf("core: force_update.status_code %d is not an http status", c.ForceUpdate.StatusCode)
	}
	if c.Refresh.StatusCode < 100 || c.Refresh.StatusCode > 599 {
		return fmt.Errorf("core: refresh.status_code %d is not an http status", c.Refresh.StatusCode)
	}
	if tokenURL := strings.TrimSpace(c.Refresh.TokenURL); tokenURL != "" {
		parsed, err := url.Parse(tokenURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("core: refresh.token_url %q must be an absolute url", tokenURL)
		}
	}
	return nil
}
