package session

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/transport"
)

// BuildURI joins the non-empty segments under base with single slashes. With
// no non-empty segment base is returned unchanged.
func BuildURI(base string, segments ...string) string {
	var builder strings.Builder
	builder.WriteString(base)
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if !strings.HasSuffix(builder.String(), "/") {
			builder.WriteByte('/')
		}
		builder.WriteString(segment)
	}
	return builder.String()
}

// LocationID returns the last path segment of the Location header carried by
// the outcome's raw handle.
func LocationID(outcome core.Outcome) (string, bool) {
	var location string
	switch handle := outcome.Handle.(type) {
	case *transport.XHRHandle:
		location = handle.GetResponseHeader(core.HeaderLocation)
	case *http.Response:
		if handle != nil {
			location = handle.Header.Get(core.HeaderLocation)
		}
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return "", false
	}
	return location[strings.LastIndex(location, "/")+1:], true
}
