package apiclient

import (
	"context"
	"fmt"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-apiclient/adapters/gologger"
	"github.com/goliatone/go-apiclient/auth"
	"github.com/goliatone/go-apiclient/codec"
	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/session"
	"github.com/goliatone/go-apiclient/store/memory"
	"github.com/goliatone/go-apiclient/transport"
)

// Client wires a session with its transport, codec, credential store and
// refresher.
type Client struct {
	config   core.Config
	logger   core.Logger
	provider core.LoggerProvider
	observer *core.Observer
	session  *session.Session
	facade   *Facade
}

// New resolves configuration (defaults < provider < cfg) and builds a
// client. Without a credential store the session keeps tokens in memory.
func New(cfg Config, opts ...Option) (*Client, error) {
	builder := clientBuilder{runtimeConfig: cfg}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := gologger.Resolve(gologger.DefaultName, builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)

	finalConfig, err := core.ResolveConfig(
		context.Background(),
		builder.runtimeConfig,
		builder.configProvider,
		builder.optionsResolver,
	)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		if named := provider.GetLogger(finalConfig.ServiceName); named != nil {
			logger = glog.Ensure(named)
		}
	}
	observer := core.NewObserver(logger, builder.metricsRecorder)

	store := builder.credentialStore
	if store == nil {
		store = memory.New()
	}

	refresher := builder.refresher
	if refresher == nil && finalConfig.Refresh.TokenURL != "" {
		var refresherOpts []auth.RefresherOption
		if builder.httpClient != nil {
			refresherOpts = append(refresherOpts, auth.WithHTTPClient(builder.httpClient))
		}
		oauth, err := auth.NewOAuth2RefresherFromConfig(finalConfig.Refresh, refresherOpts...)
		if err != nil {
			return nil, err
		}
		refresher = oauth
	}

	codecRegistry := builder.codec
	if codecRegistry == nil {
		codecRegistry = codec.New(finalConfig.Environment)
	}
	if err := builder.hooks.ApplyCodecPacks(codecRegistry); err != nil {
		return nil, err
	}

	transports := builder.transports
	if transports == nil {
		transports = transport.NewDefaultRegistry()
	}
	exchange, err := transports.Build(
		string(finalConfig.Environment),
		transport.FactoryConfig(finalConfig, builder.httpClient, builder.cookieJar),
	)
	if err != nil {
		return nil, err
	}
	if exchange.Environment() != finalConfig.Environment {
		return nil, fmt.Errorf(
			"apiclient: transport %q runs in %q, config expects %q",
			exchange.Kind(), exchange.Environment(), finalConfig.Environment,
		)
	}

	sessionOpts := []session.Option{
		session.WithConfig(finalConfig),
		session.WithReloader(builder.reloader),
		session.WithObserver(observer),
	}
	if refresher != nil {
		sessionOpts = append(sessionOpts, session.WithRefresher(refresher))
	}
	sess, err := session.New(
		transport.NewSender(exchange, codecRegistry, transport.WithObserver(observer)),
		core.NewSessionState(store),
		sessionOpts...,
	)
	if err != nil {
		return nil, err
	}

	facade, err := NewFacade(sess, WithFacadeExtensions(builder.hooks))
	if err != nil {
		return nil, err
	}

	return &Client{
		config:   finalConfig,
		logger:   logger,
		provider: provider,
		observer: observer,
		session:  sess,
		facade:   facade,
	}, nil
}

// Setup builds a client that loads configuration from APICLIENT_*
// environment variables unless a config provider is given.
func Setup(cfg Config, opts ...Option) (*Client, error) {
	envProvider := core.NewCfgxConfigProvider(core.EnvConfigLoader{})
	return New(cfg, append([]Option{WithConfigProvider(envProvider)}, opts...)...)
}

func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Client) Session() *session.Session {
	if c == nil {
		return nil
	}
	return c.session
}

func (c *Client) Facade() *Facade {
	if c == nil {
		return nil
	}
	return c.facade
}

func (c *Client) Logger() core.Logger {
	if c == nil {
		return glog.Nop()
	}
	return c.logger
}

func (c *Client) Observer() *core.Observer {
	if c == nil {
		return nil
	}
	return c.observer
}

// JobLogger bridges the client logger for go-job workers running refresh
// jobs.
func (c *Client) JobLogger() job.Logger {
	return gologger.ToJobLogger(c.Logger())
}

func (c *Client) Request(ctx context.Context, args Args) (Outcome, error) {
	return c.session.Request(ctx, args)
}

func (c *Client) RequestAsync(ctx context.Context, args Args) (*Pending, error) {
	return c.session.RequestAsync(ctx, args)
}

func (c *Client) Refresh(ctx context.Context) (TokenState, error) {
	return c.session.Refresh(ctx)
}

func (c *Client) Tokens(ctx context.Context) (TokenState, error) {
	return c.session.Tokens(ctx)
}

// SetTokens stores credentials obtained outside the client, typically at
// sign in.
func (c *Client) SetTokens(ctx context.Context, tokens TokenState) error {
	return c.session.State().SetTokens(ctx, tokens)
}

func (c *Client) ClearTokens(ctx context.Context) error {
	return c.session.State().ClearTokens(ctx)
}

func (c *Client) ForceUpdateRetries(ctx context.Context) (int, error) {
	return c.session.ForceUpdateRetries(ctx)
}

func (c *Client) ResetForceUpdate(ctx context.Context) error {
	return c.session.ResetForceUpdate(ctx)
}
