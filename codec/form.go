package codec

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-apiclient/core"
)

const upperhex = "0123456789ABCDEF"

// EncodeComponent percent-encodes value with encodeURIComponent rules: only
// ASCII letters, digits and -_.!~*'() are left as they are.
func EncodeComponent(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreservedComponent(c) {
			builder.WriteByte(c)
			continue
		}
		builder.WriteByte('%')
		builder.WriteByte(upperhex[c>>4])
		builder.WriteByte(upperhex[c&15])
	}
	return builder.String()
}

func isUnreservedComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// EncodeForm renders data as key=value pairs joined by '&', keys sorted.
// Maps, url.Values and JSON-encodable structs are accepted.
func EncodeForm(data any) (string, error) {
	switch typed := data.(type) {
	case nil:
		return "", nil
	case url.Values:
		return encodeValues(typed), nil
	case map[string][]string:
		return encodeValues(url.Values(typed)), nil
	case map[string]string:
		fields := make(map[string]any, len(typed))
		for key, value := range typed {
			fields[key] = value
		}
		return encodeFields(fields), nil
	case map[string]any:
		return encodeFields(typed), nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", core.NewInvalidPayloadError(err, "codec: encode form payload", map[string]any{"kind": KindFormURLEncoded})
	}
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", core.NewInvalidPayloadError(err, "codec: form payload must be an object", map[string]any{"kind": KindFormURLEncoded})
	}
	return encodeFields(fields), nil
}

func encodeFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, EncodeComponent(key)+"="+EncodeComponent(formatValue(fields[key])))
	}
	return strings.Join(pairs, "&")
}

func encodeValues(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		for _, value := range values[key] {
			pairs = append(pairs, EncodeComponent(key)+"="+EncodeComponent(value))
		}
	}
	return strings.Join(pairs, "&")
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "null"
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case []string:
		return strings.Join(typed, ",")
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ",")
	case map[string]any:
		payload, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(payload)
	default:
		return fmt.Sprint(typed)
	}
}
