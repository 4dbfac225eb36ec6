package apiclient

import (
	"net/http"

	"github.com/goliatone/go-apiclient/codec"
	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/transport"
)

type clientBuilder struct {
	runtimeConfig   core.Config
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	credentialStore core.CredentialStore
	refresher       core.CredentialRefresher
	reloader        core.Reloader
	httpClient      core.HTTPDoer
	cookieJar       http.CookieJar
	transports      *transport.Registry
	codec           *codec.Registry
	hooks           *ExtensionHooks
}

type Option func(*clientBuilder)

func WithLogger(logger core.Logger) Option {
	return func(b *clientBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *clientBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *clientBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *clientBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *clientBuilder) {
		b.optionsResolver = resolver
	}
}

// WithCredentialStore replaces the in-memory store, for example with the sql
// or redis stores.
func WithCredentialStore(store core.CredentialStore) Option {
	return func(b *clientBuilder) {
		b.credentialStore = store
	}
}

// WithRefresher replaces the OAuth2 refresher built from refresh.token_url.
func WithRefresher(refresher core.CredentialRefresher) Option {
	return func(b *clientBuilder) {
		b.refresher = refresher
	}
}

func WithReloader(reloader core.Reloader) Option {
	return func(b *clientBuilder) {
		b.reloader = reloader
	}
}

// WithHTTPClient sets the client used by the transport and the refresher.
func WithHTTPClient(client core.HTTPDoer) Option {
	return func(b *clientBuilder) {
		b.httpClient = client
	}
}

// WithCookieJar sets the jar the hosted transport sends ambient credentials
// from.
func WithCookieJar(jar http.CookieJar) Option {
	return func(b *clientBuilder) {
		b.cookieJar = jar
	}
}

func WithTransportRegistry(registry *transport.Registry) Option {
	return func(b *clientBuilder) {
		b.transports = registry
	}
}

func WithCodec(registry *codec.Registry) Option {
	return func(b *clientBuilder) {
		b.codec = registry
	}
}

func WithExtensionHooks(hooks *ExtensionHooks) Option {
	return func(b *clientBuilder) {
		b.hooks = hooks
	}
}
