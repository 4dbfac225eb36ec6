// Package codec serializes request payloads and parses response payloads.
package codec

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-apiclient/core"
)

const (
	KindJSON           = "json"
	KindFormURLEncoded = "form-urlencoded"
	KindDataURI        = "datauri"
	KindBlob           = "blob"
	KindStream         = "stream"
)

// SerializeFunc converts an outgoing payload for one content-type family.
type SerializeFunc func(data any) (any, error)

// ParseFunc converts an incoming payload for one response kind. auxType is the
// auxiliary data-type hint declared by the request.
type ParseFunc func(raw any, auxType string) (any, error)

type serializer struct {
	key string
	fn  SerializeFunc
}

type parser struct {
	key string
	fn  ParseFunc
}

// Registry holds ordered serialize and parse handlers. Handlers match when
// their key is a case-insensitive substring of the content-type or response
// kind; the first registered match wins. Values nothing matches pass through
// unchanged.
type Registry struct {
	mu          sync.RWMutex
	env         core.Environment
	serializers []serializer
	parsers     []parser
}

// New returns a registry with the default handlers for env.
func New(env core.Environment) *Registry {
	registry := NewEmpty(env)
	_ = registry.RegisterSerializer(KindJSON, serializeJSON)
	_ = registry.RegisterSerializer(KindFormURLEncoded, serializeForm)
	_ = registry.RegisterSerializer(KindDataURI, registry.serializeDataURI)
	_ = registry.RegisterSerializer(KindBlob, registry.serializeBlob)
	_ = registry.RegisterSerializer(KindStream, registry.serializeStream)
	_ = registry.RegisterParser(KindJSON, parseJSON)
	return registry
}

// NewEmpty returns a registry without handlers.
func NewEmpty(env core.Environment) *Registry {
	if !env.Valid() {
		env = core.EnvironmentStandalone
	}
	return &Registry{env: env}
}

func (r *Registry) Environment() core.Environment {
	if r == nil {
		return core.EnvironmentStandalone
	}
	return r.env
}

// RegisterSerializer adds a serialize handler after every registered one.
// Registering an existing key replaces the handler in place and keeps its
// position.
func (r *Registry) RegisterSerializer(key string, fn SerializeFunc) error {
	return r.addSerializer(key, fn, false)
}

// PrependSerializer adds a serialize handler ahead of every registered one, so
// a specific key such as vnd.api+json can win over the json default. An
// existing key is replaced in place.
func (r *Registry) PrependSerializer(key string, fn SerializeFunc) error {
	return r.addSerializer(key, fn, true)
}

// RegisterParser adds a parse handler with the same replacement rules as
// RegisterSerializer.
func (r *Registry) RegisterParser(key string, fn ParseFunc) error {
	return r.addParser(key, fn, false)
}

// PrependParser is the parse counterpart of PrependSerializer.
func (r *Registry) PrependParser(key string, fn ParseFunc) error {
	return r.addParser(key, fn, true)
}

func (r *Registry) addSerializer(key string, fn SerializeFunc, front bool) error {
	if r == nil {
		return fmt.Errorf("codec: registry is nil")
	}
	key = normalizeKey(key)
	if key == "" {
		return fmt.Errorf("codec: serializer key is required")
	}
	if fn == nil {
		return fmt.Errorf("codec: serializer %q is nil", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.serializers {
		if r.serializers[i].key == key {
			r.serializers[i].fn = fn
			return nil
		}
	}
	entry := serializer{key: key, fn: fn}
	if front {
		r.serializers = append([]serializer{entry}, r.serializers...)
		return nil
	}
	r.serializers = append(r.serializers, entry)
	return nil
}

func (r *Registry) addParser(key string, fn ParseFunc, front bool) error {
	if r == nil {
		return fmt.Errorf("codec: registry is nil")
	}
	key = normalizeKey(key)
	if key == "" {
		return fmt.Errorf("codec: parser key is required")
	}
	if fn == nil {
		return fmt.Errorf("codec: parser %q is nil", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.parsers {
		if r.parsers[i].key == key {
			r.parsers[i].fn = fn
			return nil
		}
	}
	entry := parser{key: key, fn: fn}
	if front {
		r.parsers = append([]parser{entry}, r.parsers...)
		return nil
	}
	r.parsers = append(r.parsers, entry)
	return nil
}

// Serializers lists serializer keys in match order.
func (r *Registry) Serializers() []string {
	if r == nil {
		return []string{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.serializers))
	for _, entry := range r.serializers {
		keys = append(keys, entry.key)
	}
	return keys
}

// Parsers lists parser keys in match order.
func (r *Registry) Parsers() []string {
	if r == nil {
		return []string{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.parsers))
	for _, entry := range r.parsers {
		keys = append(keys, entry.key)
	}
	return keys
}

func (r *Registry) Serialize(data any, contentType string) (any, error) {
	if r == nil {
		return data, nil
	}
	contentType = strings.ToLower(contentType)
	r.mu.RLock()
	var fn SerializeFunc
	for _, entry := range r.serializers {
		if strings.Contains(contentType, entry.key) {
			fn = entry.fn
			break
		}
	}
	r.mu.RUnlock()
	if fn == nil {
		return data, nil
	}
	return fn(data)
}

func (r *Registry) Parse(raw any, responseKind string, auxType string) (any, error) {
	if r == nil {
		return raw, nil
	}
	responseKind = strings.ToLower(responseKind)
	r.mu.RLock()
	var fn ParseFunc
	for _, entry := range r.parsers {
		if strings.Contains(responseKind, entry.key) {
			fn = entry.fn
			break
		}
	}
	r.mu.RUnlock()
	if fn == nil {
		return raw, nil
	}
	return fn(raw, auxType)
}

func normalizeKey(key string) string {
	return strings.TrimSpace(strings.ToLower(key))
}
