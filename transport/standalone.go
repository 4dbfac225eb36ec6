package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-apiclient/codec"
	"github.com/goliatone/go-apiclient/core"
)

const KindStandalone = string(core.EnvironmentStandalone)

const defaultClientTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

// StandaloneTransport executes exchanges through a pluggable HTTP client. The
// raw handle is the *http.Response with its body rewound.
type StandaloneTransport struct {
	Client               core.HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

func NewStandaloneTransport(client core.HTTPDoer) *StandaloneTransport {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &StandaloneTransport{
		Client:               client,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

func (*StandaloneTransport) Kind() string {
	return KindStandalone
}

func (*StandaloneTransport) Environment() core.Environment {
	return core.EnvironmentStandalone
}

func (t *StandaloneTransport) Execute(ctx context.Context, desc core.RequestDescriptor) core.Exchange {
	exchange := core.Exchange{
		DataType:  desc.DataType,
		HandleKey: core.HandleKeyResponse,
	}
	if t == nil || t.Client == nil {
		exchange.Err = transportError(
			"transport: standalone transport requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"transport": KindStandalone},
		)
		return exchange
	}
	if ctx == nil {
		ctx = context.Background()
	}

	httpReq, err := newHTTPRequest(ctx, desc, desc.URL)
	if err != nil {
		exchange.Err = err
		return exchange
	}
	for key, value := range t.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	applyHeaders(httpReq, desc.Headers)

	httpRes, err := t.Client.Do(httpReq)
	if err != nil {
		exchange.Err = networkError(err, "transport: execute http request", map[string]any{
			"transport": KindStandalone,
			"method":    httpReq.Method,
			"url":       httpReq.URL.String(),
		})
		return exchange
	}
	defer httpRes.Body.Close()

	body, err := readBody(httpRes, t.MaxResponseBodyBytes)
	if err != nil {
		exchange.Err = networkError(err, "transport: read response body", map[string]any{
			"transport":   KindStandalone,
			"status_code": httpRes.StatusCode,
		})
		return exchange
	}
	httpRes.Body = io.NopCloser(bytes.NewReader(body))

	exchange.Status = httpRes.StatusCode
	exchange.StatusText = statusText(httpRes)
	exchange.Body = body
	exchange.ResponseKind = responseKind("", httpRes.Header.Get(core.HeaderContentType))
	exchange.Handle = httpRes
	return exchange
}

func newHTTPRequest(ctx context.Context, desc core.RequestDescriptor, target string) (*http.Request, error) {
	method, ok := core.NormalizeMethod(desc.Method)
	if !ok {
		return nil, transportError(
			fmt.Sprintf("transport: unsupported method %q", desc.Method),
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"method": desc.Method},
		)
	}
	var body io.Reader
	switch {
	case desc.Stream != nil:
		body = desc.Stream
	case len(desc.Body) > 0:
		body = bytes.NewReader(desc.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, strings.TrimSpace(target), body)
	if err != nil {
		return nil, core.NewBuildError("transport: create http request", map[string]any{
			"method": method,
			"url":    target,
			"error":  err.Error(),
		})
	}
	return httpReq, nil
}

func applyHeaders(httpReq *http.Request, headers map[string]string) {
	for key, value := range headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), value)
	}
}

func readBody(httpRes *http.Response, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("transport: response body exceeds limit of %d bytes", limit)
	}
	return body, nil
}

// responseKind prefers the declared hint and falls back to the normalized
// response content type.
func responseKind(hint, contentType string) string {
	if hint = strings.TrimSpace(hint); hint != "" {
		return hint
	}
	if normalized := codec.NormalizeMediaType(contentType); normalized != "" {
		return normalized
	}
	return strings.TrimSpace(contentType)
}

func statusText(httpRes *http.Response) string {
	status := strings.TrimSpace(httpRes.Status)
	prefix := fmt.Sprintf("%d", httpRes.StatusCode)
	return strings.TrimSpace(strings.TrimPrefix(status, prefix))
}
