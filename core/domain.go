package core

import (
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	MethodGet     = http.MethodGet
	MethodPost    = http.MethodPost
	MethodPut     = http.MethodPut
	MethodDelete  = http.MethodDelete
	MethodOptions = http.MethodOptions
	MethodPatch   = http.MethodPatch
	MethodHead    = http.MethodHead
)

// Methods returns the supported request methods.
func Methods() []string {
	return []string{MethodGet, MethodPost, MethodPut, MethodDelete, MethodOptions, MethodPatch, MethodHead}
}

// NormalizeMethod upper-cases method and reports whether it is supported.
// An empty method normalizes to GET.
func NormalizeMethod(method string) (string, bool) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return MethodGet, true
	}
	for _, supported := range Methods() {
		if method == supported {
			return method, true
		}
	}
	return method, false
}

// HasBody reports whether requests with method carry a serialized payload.
func HasBody(method string) bool {
	switch method {
	case MethodPost, MethodPut, MethodPatch:
		return true
	default:
		return false
	}
}

type Environment string

const (
	// EnvironmentHosted runs requests inside an origin-bound engine.
	EnvironmentHosted Environment = "hosted"
	// EnvironmentStandalone runs requests through a pluggable HTTP client.
	EnvironmentStandalone Environment = "standalone"
)

func (e Environment) Valid() bool {
	return e == EnvironmentHosted || e == EnvironmentStandalone
}

// HandleKey is the key raw handles are exposed under in outcome fields.
func (e Environment) HandleKey() string {
	if e == EnvironmentHosted {
		return HandleKeyXHR
	}
	return HandleKeyResponse
}

const (
	HandleKeyXHR      = "xhr"
	HandleKeyResponse = "response"
)

const (
	HeaderAccept        = "Accept"
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderNoRedirect    = "No-Redirect"
	HeaderLocation      = "Location"
)

// RequestDescriptor is the transport-level view of one request attempt. It is
// built fresh per attempt and must not be mutated afterwards.
type RequestDescriptor struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body holds serialized payload bytes.
	Body []byte
	// Stream carries a payload that could not be buffered. It is consumed by
	// the first attempt.
	Stream io.Reader
	// ResponseKind is the expected response kind hint (json, blob, ...).
	ResponseKind string
	// DataType is the auxiliary parse hint.
	DataType        string
	WithCredentials bool
}

// Header returns the value of the named header using a case-insensitive match.
func (d RequestDescriptor) Header(name string) string {
	if value, ok := d.Headers[name]; ok {
		return value
	}
	for key, value := range d.Headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

// Exchange is the raw result of executing a descriptor, before normalization.
type Exchange struct {
	Status       int
	StatusText   string
	Body         []byte
	ResponseKind string
	DataType     string
	Handle       any
	HandleKey    string
	Err          error
}

type OutcomeKind string

const (
	OutcomeSuccess      OutcomeKind = "success"
	OutcomeFailure      OutcomeKind = "failure"
	OutcomeUnclassified OutcomeKind = "unclassified"
)

// Outcome is the normalized result of one exchange.
type Outcome struct {
	Kind       OutcomeKind
	Data       any
	StatusCode int
	StatusText string
	Err        error
	Handle     any
	HandleKey  string
	// Body is the raw response payload.
	Body []byte
}

func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// Fields returns the caller-facing shape of the outcome: data, status, the raw
// handle under its environment key and, for failures, the error.
func (o Outcome) Fields() map[string]any {
	fields := map[string]any{
		"data":   o.Data,
		"status": o.StatusCode,
	}
	if o.Kind != OutcomeSuccess {
		fields["error"] = o.Err
	}
	if key := strings.TrimSpace(o.HandleKey); key != "" {
		fields[key] = o.Handle
	}
	return fields
}

// Callbacks are optional completion hooks invoked when an exchange settles.
type Callbacks struct {
	OnSuccess func(data any, status int, handle any)
	OnError   func(err error, status int, handle any)
}

// TokenState is the credential bundle kept in the credential store.
type TokenState struct {
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	Scopes       []string   `json:"scopes,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func (t TokenState) HasAccessToken() bool {
	return strings.TrimSpace(t.AccessToken) != ""
}

func (t TokenState) HasRefreshToken() bool {
	return strings.TrimSpace(t.RefreshToken) != ""
}
