package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-apiclient/codec"
	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/transport"
)

const dataTypeBlob = "blob"

// Args are the call arguments of one logical request.
type Args struct {
	URL     string
	Method  string
	Headers map[string]string
	Data    any
	// Query is appended to URL percent-encoded as a single component.
	Query       string
	Aggregation any
	Search      any
	Sort        any
	Pagination  *Pagination
	// DataType is the parse hint. Defaults to json; cleared by Accept.
	DataType    string
	ContentType string
	// Accept overrides the Accept header and clears DataType.
	Accept          string
	NoRedirect      bool
	ResponseType    string
	WithCredentials bool
	// Callbacks run once, when the logical call settles.
	Callbacks core.Callbacks
}

type Pagination struct {
	Page int
	Size int
}

// ComposeQuery renders the query composition fields in api:aggregation,
// api:search, api:sort, api:page, api:pageSize order. Values are JSON encoded
// and then percent-encoded one at a time; separators stay raw.
func ComposeQuery(aggregation, search, sort any, pagination *Pagination) (string, error) {
	parts := []string{}
	for _, field := range []struct {
		key   string
		value any
	}{
		{key: "api:aggregation", value: aggregation},
		{key: "api:search", value: search},
		{key: "api:sort", value: sort},
	} {
		if isEmpty(field.value) {
			continue
		}
		encoded, err := json.Marshal(field.value)
		if err != nil {
			return "", core.NewBuildError(
				"request: encode "+strings.TrimPrefix(field.key, "api:"),
				map[string]any{"error": err.Error()},
			)
		}
		parts = append(parts, field.key+"="+codec.EncodeComponent(string(encoded)))
	}
	if pagination != nil {
		if pagination.Page > 0 {
			parts = append(parts, "api:page="+strconv.Itoa(pagination.Page))
		}
		if pagination.Size > 0 {
			parts = append(parts, "api:pageSize="+strconv.Itoa(pagination.Size))
		}
	}
	return strings.Join(parts, "&"), nil
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case map[string]any:
		return len(typed) == 0
	default:
		return false
	}
}

// build merges args with defaults and the current credentials into sender
// options. It reads the credential store on every call.
func (s *Session) build(ctx context.Context, args Args) (transport.SendOptions, error) {
	target := strings.TrimSpace(args.URL)
	if target == "" {
		return transport.SendOptions{}, core.NewBuildError("request: url is required", nil)
	}
	method, ok := core.NormalizeMethod(args.Method)
	if !ok {
		return transport.SendOptions{}, core.NewBuildError(
			fmt.Sprintf("request: unsupported method %q", args.Method),
			map[string]any{"method": args.Method, "url": target},
		)
	}

	headers := make(map[string]string, len(args.Headers)+3)
	for key, value := range args.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		headers[strings.TrimSpace(key)] = value
	}
	if headerValue(headers, core.HeaderAccept) == "" && s.cfg.Request.Accept != "" {
		setHeader(headers, core.HeaderAccept, s.cfg.Request.Accept)
	}

	dataType := strings.TrimSpace(args.DataType)
	if dataType == "" {
		dataType = s.cfg.Request.DataType
	}
	contentType := strings.TrimSpace(args.ContentType)
	if contentType == "" {
		contentType = s.cfg.Request.ContentType
	}

	query := ""
	if args.Query != "" {
		query = codec.EncodeComponent(args.Query)
	}
	composed, err := ComposeQuery(args.Aggregation, args.Search, args.Sort, args.Pagination)
	if err != nil {
		return transport.SendOptions{}, err
	}
	if composed != "" {
		if query != "" {
			query += "&"
		}
		query += composed
	}
	if query != "" {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}
		target += separator + query
	}

	if args.NoRedirect {
		setHeader(headers, core.HeaderNoRedirect, "true")
	}
	if accept := strings.TrimSpace(args.Accept); accept != "" {
		setHeader(headers, core.HeaderAccept, accept)
		dataType = ""
	}
	if strings.EqualFold(dataType, dataTypeBlob) && s.env == core.EnvironmentHosted {
		mediaType, err := blobMediaType(args.Data)
		if err != nil {
			return transport.SendOptions{}, err
		}
		setHeader(headers, core.HeaderAccept, mediaType)
		contentType = mediaType
		dataType = ""
	}

	tokens, err := s.state.Tokens(ctx)
	if err != nil {
		return transport.SendOptions{}, err
	}
	if tokens.HasAccessToken() {
		setHeader(headers, core.HeaderAuthorization, "Bearer "+tokens.AccessToken)
	}

	return transport.SendOptions{
		Method:          method,
		URL:             target,
		Headers:         headers,
		Data:            args.Data,
		ContentType:     contentType,
		ResponseType:    args.ResponseType,
		DataType:        dataType,
		WithCredentials: args.WithCredentials,
	}, nil
}

func blobMediaType(data any) (string, error) {
	blob, ok := data.(*codec.Blob)
	if !ok || blob == nil {
		return "", core.NewBuildError(
			fmt.Sprintf("request: blob data type requires a *codec.Blob payload, got %T", data),
			nil,
		)
	}
	mediaType := codec.NormalizeMediaType(blob.Type)
	if mediaType == "" {
		return "", core.NewBuildError("request: blob payload has no media type", nil)
	}
	return mediaType, nil
}

func headerValue(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

// setHeader replaces any case variant of name.
func setHeader(headers map[string]string, name, value string) {
	for key := range headers {
		if strings.EqualFold(key, name) {
			delete(headers, key)
		}
	}
	headers[name] = value
}
