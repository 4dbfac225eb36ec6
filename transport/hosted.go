package transport

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-apiclient/core"
)

const KindHosted = string(core.EnvironmentHosted)

// XHRHandle is the raw handle of a hosted exchange.
type XHRHandle struct {
	Method          string
	URL             string
	Status          int
	StatusText      string
	ResponseType    string
	WithCredentials bool
	ResponseText    string
	Response        []byte
	Header          http.Header
	Err             error
}

// GetResponseHeader returns the named response header, or "" when absent.
func (h *XHRHandle) GetResponseHeader(name string) string {
	if h == nil || h.Header == nil {
		return ""
	}
	return h.Header.Get(name)
}

// HostedTransport executes exchanges on behalf of a page bound to Origin.
// Relative URLs resolve against Origin. Cookies from Jar travel with
// same-origin requests, and with cross-origin requests only when the
// descriptor opts in.
type HostedTransport struct {
	Origin               string
	Client               core.HTTPDoer
	Jar                  http.CookieJar
	MaxResponseBodyBytes int64
}

func NewHostedTransport(origin string, client core.HTTPDoer, jar http.CookieJar) *HostedTransport {
	if client == nil {
		// Cookies are attached per request; the client must not manage its own jar.
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &HostedTransport{
		Origin:               strings.TrimSpace(origin),
		Client:               client,
		Jar:                  jar,
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

func (*HostedTransport) Kind() string {
	return KindHosted
}

func (*HostedTransport) Environment() core.Environment {
	return core.EnvironmentHosted
}

func (t *HostedTransport) Execute(ctx context.Context, desc core.RequestDescriptor) core.Exchange {
	handle := &XHRHandle{
		Method:       strings.ToUpper(strings.TrimSpace(desc.Method)),
		URL:          desc.URL,
		ResponseType: strings.TrimSpace(desc.ResponseKind),
		Header:       http.Header{},
	}
	exchange := core.Exchange{
		DataType:  desc.DataType,
		Handle:    handle,
		HandleKey: core.HandleKeyXHR,
	}
	if t == nil || t.Client == nil {
		exchange.Err = transportError(
			"transport: hosted transport requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"transport": KindHosted},
		)
		handle.Err = exchange.Err
		return exchange
	}
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := ResolveURL(t.Origin, desc.URL)
	if err != nil {
		exchange.Err = core.NewBuildError("transport: resolve request url", map[string]any{
			"url":   desc.URL,
			"error": err.Error(),
		})
		handle.Err = exchange.Err
		return exchange
	}
	handle.URL = target
	handle.WithCredentials = IsCrossOrigin(t.Origin, desc.URL) && desc.WithCredentials
	sendCookies := !IsCrossOrigin(t.Origin, desc.URL) || handle.WithCredentials

	httpReq, err := newHTTPRequest(ctx, desc, target)
	if err != nil {
		exchange.Err = err
		handle.Err = err
		return exchange
	}
	applyHeaders(httpReq, desc.Headers)
	if sendCookies && t.Jar != nil {
		for _, cookie := range t.Jar.Cookies(httpReq.URL) {
			httpReq.AddCookie(cookie)
		}
	}

	httpRes, err := t.Client.Do(httpReq)
	if err != nil {
		exchange.Err = networkError(err, "transport: execute http request", map[string]any{
			"transport": KindHosted,
			"method":    httpReq.Method,
			"url":       target,
		})
		handle.Err = exchange.Err
		return exchange
	}
	defer httpRes.Body.Close()

	if sendCookies && t.Jar != nil {
		if cookies := httpRes.Cookies(); len(cookies) > 0 {
			t.Jar.SetCookies(cookieURL(httpReq.URL), cookies)
		}
	}

	body, err := readBody(httpRes, t.MaxResponseBodyBytes)
	if err != nil {
		exchange.Err = networkError(err, "transport: read response body", map[string]any{
			"transport":   KindHosted,
			"status_code": httpRes.StatusCode,
		})
		handle.Err = exchange.Err
		return exchange
	}

	handle.Status = httpRes.StatusCode
	handle.StatusText = statusText(httpRes)
	handle.Header = httpRes.Header.Clone()
	handle.Response = body
	handle.ResponseText = string(bytes.ToValidUTF8(body, nil))

	exchange.Status = httpRes.StatusCode
	exchange.StatusText = handle.StatusText
	exchange.Body = body
	exchange.ResponseKind = responseKind(handle.ResponseType, httpRes.Header.Get(core.HeaderContentType))
	return exchange
}

func cookieURL(u *url.URL) *url.URL {
	copied := *u
	copied.RawQuery = ""
	copied.Fragment = ""
	return &copied
}
