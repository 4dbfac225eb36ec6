package session

import (
	"net/http"
	"testing"

	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/transport"
)

func TestBuildURI(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		expected string
	}{
		{"https://api.example.com/v1", []string{"user", "", "42"}, "https://api.example.com/v1/user/42"},
		{"https://api.example.com/v1/", []string{"user"}, "https://api.example.com/v1/user"},
		{"https://api.example.com/v1", nil, "https://api.example.com/v1"},
		{"https://api.example.com/v1/", nil, "https://api.example.com/v1/"},
		{"https://api.example.com/v1/", []string{"", ""}, "https://api.example.com/v1/"},
	}
	for _, tt := range tests {
		if got := BuildURI(tt.base, tt.segments...); got != tt.expected {
			t.Fatalf("BuildURI(%q, %v)=%q, expected %q", tt.base, tt.segments, got, tt.expected)
		}
	}
}

func TestLocationID(t *testing.T) {
	hosted := core.Outcome{Handle: &transport.XHRHandle{Header: http.Header{"Location": {"https://api.example.com/v1/resource/abc"}}}}
	if id, ok := LocationID(hosted); !ok || id != "abc" {
		t.Fatalf("expected abc from xhr handle, got %q", id)
	}
	standalone := core.Outcome{Handle: &http.Response{Header: http.Header{"Location": {"/v1/resource/123"}}}}
	if id, ok := LocationID(standalone); !ok || id != "123" {
		t.Fatalf("expected 123 from response handle, got %q", id)
	}
	if _, ok := LocationID(core.Outcome{}); ok {
		t.Fatalf("expected no id without handle")
	}
}
