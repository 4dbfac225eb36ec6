// Package transport executes single HTTP exchanges in the hosted and
// standalone environments and normalizes them into outcomes.
package transport

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-apiclient/core"
)

// Factory builds a transport from configuration values. Recognized keys are
// origin, client, jar, timeout_ms and max_response_body_bytes.
type Factory func(config map[string]any) (core.Transport, error)

type Registry struct {
	mu         sync.RWMutex
	transports map[string]core.Transport
	factories  map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{
		transports: map[string]core.Transport{},
		factories:  map[string]Factory{},
	}
}

// NewDefaultRegistry registers factories for both environments.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()
	_ = registry.RegisterFactory(KindStandalone, standaloneFactory)
	_ = registry.RegisterFactory(KindHosted, hostedFactory)
	return registry
}

func (r *Registry) Register(transport core.Transport) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	if transport == nil {
		return fmt.Errorf("transport: transport is nil")
	}
	kind := normalizeKind(transport.Kind())
	if kind == "" {
		return fmt.Errorf("transport: transport kind is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transports[kind]; exists {
		return fmt.Errorf("transport: transport kind %q already registered", kind)
	}
	r.transports[kind] = transport
	return nil
}

func (r *Registry) RegisterFactory(kind string, factory Factory) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return fmt.Errorf("transport: transport kind is required")
	}
	if factory == nil {
		return fmt.Errorf("transport: transport factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("transport: transport factory kind %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// Build returns the registered transport for kind, or builds one with the
// registered factory.
func (r *Registry) Build(kind string, config map[string]any) (core.Transport, error) {
	if r == nil {
		return nil, fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return nil, fmt.Errorf("transport: transport kind is required")
	}

	r.mu.RLock()
	transport, ok := r.transports[kind]
	factory := r.factories[kind]
	r.mu.RUnlock()
	if ok {
		return transport, nil
	}
	if factory == nil {
		return nil, fmt.Errorf("transport: transport kind %q not registered", kind)
	}
	built, err := factory(cloneMap(config))
	if err != nil {
		return nil, err
	}
	if built == nil {
		return nil, fmt.Errorf("transport: factory for %q returned nil transport", kind)
	}
	return built, nil
}

func (r *Registry) Get(kind string) (core.Transport, bool) {
	if r == nil {
		return nil, false
	}
	kind = normalizeKind(kind)
	r.mu.RLock()
	defer r.mu.RUnlock()
	transport, ok := r.transports[kind]
	return transport, ok
}

func (r *Registry) List() []core.Transport {
	if r == nil {
		return []core.Transport{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.transports))
	for kind := range r.transports {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	result := make([]core.Transport, 0, len(kinds))
	for _, kind := range kinds {
		result = append(result, r.transports[kind])
	}
	return result
}

// FactoryConfig projects the transport-relevant part of cfg into factory
// configuration values.
func FactoryConfig(cfg core.Config, client core.HTTPDoer, jar http.CookieJar) map[string]any {
	config := map[string]any{
		"origin":                  cfg.Origin,
		"timeout_ms":              cfg.Request.TimeoutMS,
		"max_response_body_bytes": cfg.Request.MaxResponseBodyBytes,
	}
	if client != nil {
		config["client"] = client
	}
	if jar != nil {
		config["jar"] = jar
	}
	return config
}

func standaloneFactory(config map[string]any) (core.Transport, error) {
	client, err := clientFromConfig(config)
	if err != nil {
		return nil, err
	}
	transport := NewStandaloneTransport(client)
	if limit := int64Value(config["max_response_body_bytes"]); limit > 0 {
		transport.MaxResponseBodyBytes = limit
	}
	return transport, nil
}

func hostedFactory(config map[string]any) (core.Transport, error) {
	client, err := clientFromConfig(config)
	if err != nil {
		return nil, err
	}
	var jar http.CookieJar
	if value, ok := config["jar"]; ok && value != nil {
		typed, ok := value.(http.CookieJar)
		if !ok {
			return nil, fmt.Errorf("transport: jar must implement http.CookieJar, got %T", value)
		}
		jar = typed
	}
	origin := strings.TrimSpace(fmt.Sprint(config["origin"]))
	if origin == "<nil>" {
		origin = ""
	}
	transport := NewHostedTransport(origin, client, jar)
	if limit := int64Value(config["max_response_body_bytes"]); limit > 0 {
		transport.MaxResponseBodyBytes = limit
	}
	return transport, nil
}

func clientFromConfig(config map[string]any) (core.HTTPDoer, error) {
	if value, ok := config["client"]; ok && value != nil {
		client, ok := value.(core.HTTPDoer)
		if !ok {
			return nil, fmt.Errorf("transport: client must implement HTTPDoer, got %T", value)
		}
		return client, nil
	}
	timeout := defaultClientTimeout
	if ms := int64Value(config["timeout_ms"]); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}
	return &http.Client{Timeout: timeout}, nil
}

func int64Value(value any) int64 {
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case int32:
		return int64(typed)
	case int64:
		return typed
	case float64:
		return int64(typed)
	default:
		return 0
	}
}

func normalizeKind(kind string) string {
	return strings.TrimSpace(strings.ToLower(kind))
}

func cloneMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

var (
	_ core.Transport = (*StandaloneTransport)(nil)
	_ core.Transport = (*HostedTransport)(nil)
)
