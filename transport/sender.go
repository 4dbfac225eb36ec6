package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goliatone/go-apiclient/codec"
	"github.com/goliatone/go-apiclient/core"
)

// SendOptions describes one exchange at the sender level.
type SendOptions struct {
	Method  string
	URL     string
	Headers map[string]string
	Data    any
	// ContentType overrides the Content-Type header. Defaults to
	// application/json.
	ContentType     string
	ResponseType    string
	DataType        string
	WithCredentials bool
	Callbacks       core.Callbacks
}

// Sender serializes payloads, executes them on a Transport and normalizes
// the exchange. It never retries.
type Sender struct {
	transport core.Transport
	codec     *codec.Registry
	observer  *core.Observer
}

type SenderOption func(*Sender)

func WithObserver(observer *core.Observer) SenderOption {
	return func(s *Sender) {
		if observer != nil {
			s.observer = observer
		}
	}
}

func NewSender(transport core.Transport, registry *codec.Registry, opts ...SenderOption) *Sender {
	if registry == nil {
		env := core.EnvironmentStandalone
		if transport != nil {
			env = transport.Environment()
		}
		registry = codec.New(env)
	}
	sender := &Sender{
		transport: transport,
		codec:     registry,
		observer:  core.NewObserver(nil, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sender)
		}
	}
	return sender
}

func (s *Sender) Transport() core.Transport {
	if s == nil {
		return nil
	}
	return s.transport
}

func (s *Sender) Codec() *codec.Registry {
	if s == nil {
		return nil
	}
	return s.codec
}

// Prepare validates options and builds the request descriptor. Payloads are
// serialized only for POST, PUT and PATCH.
func (s *Sender) Prepare(opts SendOptions) (core.RequestDescriptor, error) {
	if s == nil || s.transport == nil {
		return core.RequestDescriptor{}, core.NewInternalError("transport: sender requires a transport", nil)
	}
	target := strings.TrimSpace(opts.URL)
	if target == "" {
		return core.RequestDescriptor{}, core.NewBuildError("request: url is required", nil)
	}
	method, ok := core.NormalizeMethod(opts.Method)
	if !ok {
		return core.RequestDescriptor{}, core.NewBuildError(
			fmt.Sprintf("request: unsupported method %q", opts.Method),
			map[string]any{"method": opts.Method, "url": target},
		)
	}

	headers := make(map[string]string, len(opts.Headers)+1)
	for key, value := range opts.Headers {
		if strings.TrimSpace(key) == "" || strings.EqualFold(strings.TrimSpace(key), core.HeaderContentType) {
			continue
		}
		headers[strings.TrimSpace(key)] = value
	}
	contentType := strings.TrimSpace(opts.ContentType)
	if contentType == "" {
		contentType = core.DefaultSenderContentType
	}
	headers[core.HeaderContentType] = contentType

	desc := core.RequestDescriptor{
		Method:          method,
		URL:             target,
		Headers:         headers,
		ResponseKind:    strings.TrimSpace(opts.ResponseType),
		DataType:        strings.TrimSpace(opts.DataType),
		WithCredentials: opts.WithCredentials,
	}
	if !core.HasBody(method) {
		return desc, nil
	}

	serialized, err := s.codec.Serialize(opts.Data, contentType)
	if err != nil {
		return core.RequestDescriptor{}, err
	}
	if err := attachBody(&desc, serialized); err != nil {
		return core.RequestDescriptor{}, err
	}
	return desc, nil
}

// Send prepares and dispatches one exchange, blocking until it settles.
func (s *Sender) Send(ctx context.Context, opts SendOptions) (core.Outcome, error) {
	desc, err := s.Prepare(opts)
	if err != nil {
		return core.Outcome{}, err
	}
	return s.Dispatch(ctx, desc, &opts.Callbacks)
}

// Go prepares the exchange synchronously and dispatches it in the
// background. Build errors are returned before any I/O happens.
func (s *Sender) Go(ctx context.Context, opts SendOptions) (*core.Pending, error) {
	desc, err := s.Prepare(opts)
	if err != nil {
		return nil, err
	}
	callbacks := opts.Callbacks
	return core.Go(ctx, func(ctx context.Context) (core.Outcome, error) {
		return s.Dispatch(ctx, desc, &callbacks)
	}), nil
}

// Dispatch executes a prepared descriptor and normalizes the exchange.
func (s *Sender) Dispatch(ctx context.Context, desc core.RequestDescriptor, callbacks *core.Callbacks) (core.Outcome, error) {
	if s == nil || s.transport == nil {
		return core.Outcome{}, core.NewInternalError("transport: sender requires a transport", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	exchange := s.transport.Execute(ctx, desc)
	outcome, err := Normalize(exchange, s.codec, callbacks)
	s.observer.Observe(ctx, startedAt, core.OperationExchange, err, map[string]any{
		"method":      desc.Method,
		"url":         desc.URL,
		"status_code": outcome.StatusCode,
		"environment": string(s.transport.Environment()),
	})
	return outcome, err
}

func attachBody(desc *core.RequestDescriptor, serialized any) error {
	switch typed := serialized.(type) {
	case nil:
	case []byte:
		desc.Body = typed
	case json.RawMessage:
		desc.Body = typed
	case string:
		desc.Body = []byte(typed)
	case *codec.Blob:
		if typed != nil {
			desc.Body = typed.Data
		}
	case io.Reader:
		desc.Stream = typed
	default:
		return core.NewBuildError(
			fmt.Sprintf("request: cannot send %T payload as %s", serialized, desc.Header(core.HeaderContentType)),
			map[string]any{"url": desc.URL, "content_type": desc.Header(core.HeaderContentType)},
		)
	}
	return nil
}
