package apiclient

import (
	"reflect"
	"testing"

	"github.com/goliatone/go-apiclient/codec"
	"github.com/goliatone/go-apiclient/core"
)

func TestExtensionHooks_RegisterAndApplyCodecPacks(t *testing.T) {
	hooks := NewExtensionHooks()
	pack := CodecPack{
		Name: "text-pack",
		Serializers: map[string]codec.SerializeFunc{
			"text/plain": func(data any) (any, error) { return data, nil },
		},
		Parsers: map[string]codec.ParseFunc{
			"text": func(raw any, _ string) (any, error) { return raw, nil },
		},
	}
	if err := hooks.RegisterCodecPack(pack); err != nil {
		t.Fatalf("register codec pack: %v", err)
	}
	if err := hooks.RegisterCodecPack(pack); err == nil {
		t.Fatalf("expected duplicate codec pack registration error")
	}
	if err := hooks.RegisterCodecPack(CodecPack{Name: "empty"}); err == nil {
		t.Fatalf("expected empty codec pack to be rejected")
	}
	if err := hooks.RegisterCodecPack(CodecPack{
		Name:    "nil-handler",
		Parsers: map[string]codec.ParseFunc{"xml": nil},
	}); err == nil {
		t.Fatalf("expected nil handler to be rejected")
	}

	registry := codec.NewEmpty(core.EnvironmentStandalone)
	if err := hooks.ApplyCodecPacks(registry); err != nil {
		t.Fatalf("apply codec packs: %v", err)
	}
	if got := registry.Serializers(); len(got) != 1 || got[0] != "text/plain" {
		t.Fatalf("expected text/plain serializer, got %v", got)
	}
	if got := registry.Parsers(); len(got) != 1 || got[0] != "text" {
		t.Fatalf("expected text parser, got %v", got)
	}
	if err := hooks.ApplyCodecPacks(nil); err == nil {
		t.Fatalf("expected nil registry error")
	}

	var nilHooks *ExtensionHooks
	if err := nilHooks.ApplyCodecPacks(registry); err != nil {
		t.Fatalf("expected nil hooks to be a no-op, got %v", err)
	}
}

func TestExtensionHooks_CodecPacksMatchAheadOfDefaults(t *testing.T) {
	hooks := NewExtensionHooks()
	if err := hooks.RegisterCodecPack(CodecPack{
		Name: "jsonapi",
		Parsers: map[string]codec.ParseFunc{
			"vnd.api+json":        func(any, string) (any, error) { return "jsonapi", nil },
			"vnd.collection+json": func(any, string) (any, error) { return "collection", nil },
		},
	}); err != nil {
		t.Fatalf("register codec pack: %v", err)
	}
	if err := hooks.RegisterCodecPack(CodecPack{
		Name:    "zz-hal",
		Parsers: map[string]codec.ParseFunc{"hal+json": func(any, string) (any, error) { return "hal", nil }},
	}); err != nil {
		t.Fatalf("register codec pack: %v", err)
	}

	registry := codec.New(core.EnvironmentStandalone)
	if err := hooks.ApplyCodecPacks(registry); err != nil {
		t.Fatalf("apply codec packs: %v", err)
	}
	expected := []string{"vnd.api+json", "vnd.collection+json", "hal+json", "json"}
	if got := registry.Parsers(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected parser order %v, got %v", expected, got)
	}
	got, err := registry.Parse([]byte(`{"data":{}}`), "application/vnd.api+json", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != "jsonapi" {
		t.Fatalf("expected pack parser to win over json default, got %#v", got)
	}
	got, err = registry.Parse([]byte(`{"a":1}`), "application/json", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := got.(map[string]any); !ok {
		t.Fatalf("expected json default for plain json, got %#v", got)
	}
}

func TestExtensionHooks_BundlesBuildInNameOrder(t *testing.T) {
	hooks := NewExtensionHooks()
	order := []string{}
	for _, name := range []string{"pack_b", "pack_a"} {
		if err := hooks.RegisterCommandQueryBundle(name, func(CommandQuerySession) (any, error) {
			order = append(order, name)
			return name + "-bundle", nil
		}); err != nil {
			t.Fatalf("register bundle %s: %v", name, err)
		}
	}
	if err := hooks.RegisterCommandQueryBundle("pack_a", func(CommandQuerySession) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate bundle registration error")
	}
	if names := hooks.BundleNames(); len(names) != 2 || names[0] != "pack_a" {
		t.Fatalf("expected sorted bundle names, got %v", names)
	}

	bundles, err := hooks.BuildCommandQueryBundles(&stubFacadeSession{})
	if err != nil {
		t.Fatalf("build bundles: %v", err)
	}
	if bundles["pack_a"] != "pack_a-bundle" || bundles["pack_b"] != "pack_b-bundle" {
		t.Fatalf("unexpected bundles: %#v", bundles)
	}
	if len(order) != 2 || order[0] != "pack_a" {
		t.Fatalf("expected name ordered factory calls, got %v", order)
	}
	if _, err := hooks.BuildCommandQueryBundles(nil); err == nil {
		t.Fatalf("expected nil session error")
	}
}
