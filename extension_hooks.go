package apiclient

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-apiclient/codec"
)

// CodecPack groups extra serialize and parse handlers registered on a client
// codec. Pack handlers match ahead of the default handlers, packs in name order
// and handlers in key order, so a vnd.api+json key is reached before json.
// A key equal to a default replaces that default in place.
type CodecPack struct {
	Name        string
	Serializers map[string]codec.SerializeFunc
	Parsers     map[string]codec.ParseFunc
}

type CommandQueryBundleFactory func(session CommandQuerySession) (any, error)

type ExtensionHooks struct {
	mu sync.RWMutex

	codecPacks map[string]CodecPack
	bundles    map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		codecPacks: map[string]CodecPack{},
		bundles:    map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterCodecPack(pack CodecPack) error {
	if h == nil {
		return fmt.Errorf("apiclient: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("apiclient: codec pack name is required")
	}
	if len(pack.Serializers) == 0 && len(pack.Parsers) == 0 {
		return fmt.Errorf("apiclient: codec pack %q has no handlers", name)
	}

	normalized := CodecPack{
		Name:        name,
		Serializers: make(map[string]codec.SerializeFunc, len(pack.Serializers)),
		Parsers:     make(map[string]codec.ParseFunc, len(pack.Parsers)),
	}
	for key, fn := range pack.Serializers {
		if fn == nil {
			return fmt.Errorf("apiclient: codec pack %q serializer %q is nil", name, key)
		}
		normalized.Serializers[key] = fn
	}
	for key, fn := range pack.Parsers {
		if fn == nil {
			return fmt.Errorf("apiclient: codec pack %q parser %q is nil", name, key)
		}
		normalized.Parsers[key] = fn
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.codecPacks[name]; exists {
		return fmt.Errorf("apiclient: codec pack %q already registered", name)
	}
	h.codecPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("apiclient: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("apiclient: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("apiclient: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("apiclient: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// ApplyCodecPacks registers every pack on registry ahead of the handlers it
// already holds.
func (h *ExtensionHooks) ApplyCodecPacks(registry *codec.Registry) error {
	if h == nil {
		return nil
	}
	if registry == nil {
		return fmt.Errorf("apiclient: codec registry is required")
	}
	packs := h.CodecPacks()
	// prepending in reverse keeps pack and key order at the front
	for i := len(packs) - 1; i >= 0; i-- {
		serializerKeys := sortedKeys(packs[i].Serializers)
		for j := len(serializerKeys) - 1; j >= 0; j-- {
			key := serializerKeys[j]
			if err := registry.PrependSerializer(key, packs[i].Serializers[key]); err != nil {
				return err
			}
		}
		parserKeys := sortedKeys(packs[i].Parsers)
		for j := len(parserKeys) - 1; j >= 0; j-- {
			key := parserKeys[j]
			if err := registry.PrependParser(key, packs[i].Parsers[key]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	session CommandQuerySession,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if session == nil {
		return nil, fmt.Errorf("apiclient: command/query session is required")
	}

	h.mu.RLock()
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(factories))
	for _, name := range sortedKeys(factories) {
		bundle, err := factories[name](session)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) CodecPacks() []CodecPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]CodecPack, 0, len(h.codecPacks))
	for _, name := range sortedKeys(h.codecPacks) {
		out = append(out, h.codecPacks[name])
	}
	return out
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return sortedKeys(h.bundles)
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
