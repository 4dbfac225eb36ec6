package codec

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/goliatone/go-apiclient/core"
)

func serializeJSON(data any) (any, error) {
	switch typed := data.(type) {
	case nil:
		return nil, nil
	case string, []byte, json.RawMessage:
		return typed, nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, core.NewInvalidPayloadError(err, "codec: marshal json payload", map[string]any{"kind": KindJSON})
	}
	return payload, nil
}

func serializeForm(data any) (any, error) {
	switch typed := data.(type) {
	case nil:
		return nil, nil
	case string, []byte:
		return typed, nil
	}
	encoded, err := EncodeForm(data)
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

// serializeDataURI turns a data URI into a Blob in the hosted environment and
// into a byte stream in the standalone one.
func (r *Registry) serializeDataURI(data any) (any, error) {
	var uri string
	switch typed := data.(type) {
	case nil:
		return nil, nil
	case string:
		uri = typed
	case []byte:
		uri = string(typed)
	default:
		return data, nil
	}
	blob, err := ParseDataURI(uri)
	if err != nil {
		return nil, err
	}
	if r.Environment() == core.EnvironmentHosted {
		return blob, nil
	}
	return bytes.NewReader(blob.Data), nil
}

func (r *Registry) serializeBlob(data any) (any, error) {
	if r.Environment() == core.EnvironmentStandalone {
		return nil, core.NewUnsupportedPayloadError(KindBlob, r.Environment())
	}
	return data, nil
}

func (r *Registry) serializeStream(data any) (any, error) {
	if r.Environment() == core.EnvironmentHosted {
		return nil, core.NewUnsupportedPayloadError(KindStream, r.Environment())
	}
	return data, nil
}

// parseJSON decodes textual payloads. Empty input decodes as an empty object
// and already structured values are returned as they are.
func parseJSON(raw any, _ string) (any, error) {
	var payload []byte
	switch typed := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case string:
		payload = []byte(typed)
	case []byte:
		payload = typed
	case json.RawMessage:
		payload = typed
	case io.Reader:
		read, err := io.ReadAll(typed)
		if err != nil {
			return nil, core.NewParseError(err, KindJSON, 0)
		}
		payload = read
	default:
		return raw, nil
	}
	if strings.TrimSpace(string(payload)) == "" {
		return map[string]any{}, nil
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, core.NewParseError(err, KindJSON, 0)
	}
	return decoded, nil
}
