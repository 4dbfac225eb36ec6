package codec

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/elnormous/contenttype"
	"github.com/goliatone/go-apiclient/core"
)

// Blob is an in-memory binary payload with its media type.
type Blob struct {
	Type string
	Data []byte
}

func NewBlob(mediaType string, data []byte) *Blob {
	return &Blob{Type: NormalizeMediaType(mediaType), Data: append([]byte(nil), data...)}
}

func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// NormalizeMediaType returns the lower-cased type/subtype of value without
// parameters, or "" when value is not a media type.
func NormalizeMediaType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	mediaType := contenttype.NewMediaType(value)
	if mediaType.Type == "" || mediaType.Subtype == "" {
		return ""
	}
	return strings.ToLower(mediaType.Type + "/" + mediaType.Subtype)
}

// ParseDataURI decodes a data URI of the form data:<type>[;base64],<payload>.
func ParseDataURI(uri string) (*Blob, error) {
	uri = strings.TrimSpace(uri)
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(strings.ToLower(header), "data:") {
		return nil, core.NewInvalidPayloadError(nil, "codec: malformed data uri", map[string]any{"kind": KindDataURI})
	}
	meta := header[len("data:"):]
	isBase64 := false
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		isBase64 = true
		meta = meta[:len(meta)-len(";base64")]
	}
	mediaType := NormalizeMediaType(meta)
	if mediaType == "" {
		mediaType = "text/plain"
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, core.NewInvalidPayloadError(err, "codec: decode data uri payload", map[string]any{"kind": KindDataURI})
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, core.NewInvalidPayloadError(err, "codec: unescape data uri payload", map[string]any{"kind": KindDataURI})
		}
		data = []byte(unescaped)
	}
	return &Blob{Type: mediaType, Data: data}, nil
}
