package core

import (
	"errors"
	"testing"
)

func TestNormalizeMethod_KeepsEverySupportedMethod(t *testing.T) {
	for _, method := range Methods() {
		got, ok := NormalizeMethod(method)
		if !ok || got != method {
			t.Fatalf("expected %s to normalize to itself, got %q ok=%v", method, got, ok)
		}
	}
	if got, ok := NormalizeMethod(" patch "); !ok || got != MethodPatch {
		t.Fatalf("expected lower case method to normalize, got %q", got)
	}
	if got, ok := NormalizeMethod(""); !ok || got != MethodGet {
		t.Fatalf("expected empty method to default to GET, got %q", got)
	}
	if _, ok := NormalizeMethod("TRACE"); ok {
		t.Fatalf("expected TRACE to be unsupported")
	}
}

func TestHasBody(t *testing.T) {
	tests := map[string]bool{
		MethodGet:     false,
		MethodPost:    true,
		MethodPut:     true,
		MethodPatch:   true,
		MethodDelete:  false,
		MethodHead:    false,
		MethodOptions: false,
	}
	for method, expected := range tests {
		if got := HasBody(method); got != expected {
			t.Fatalf("HasBody(%s)=%v, expected %v", method, got, expected)
		}
	}
}

func TestEnvironment_HandleKey(t *testing.T) {
	if EnvironmentHosted.HandleKey() != "xhr" {
		t.Fatalf("expected hosted handle key xhr")
	}
	if EnvironmentStandalone.HandleKey() != "response" {
		t.Fatalf("expected standalone handle key response")
	}
	if Environment("browser").Valid() {
		t.Fatalf("expected unknown environment to be invalid")
	}
}

func TestRequestDescriptor_HeaderIsCaseInsensitive(t *testing.T) {
	desc := RequestDescriptor{Headers: map[string]string{"content-type": "text/plain"}}
	if got := desc.Header(HeaderContentType); got != "text/plain" {
		t.Fatalf("expected text/plain, got %q", got)
	}
	if got := desc.Header(HeaderAccept); got != "" {
		t.Fatalf("expected empty accept, got %q", got)
	}
}

func TestOutcomeFields(t *testing.T) {
	handle := struct{ ID int }{ID: 1}
	success := Outcome{
		Kind:       OutcomeSuccess,
		Data:       map[string]any{"a": 1.0},
		StatusCode: 200,
		Handle:     handle,
		HandleKey:  HandleKeyResponse,
	}
	fields := success.Fields()
	if _, ok := fields["error"]; ok {
		t.Fatalf("expected no error field on success")
	}
	if fields["status"] != 200 || fields["response"] != handle {
		t.Fatalf("unexpected success fields: %#v", fields)
	}

	cause := errors.New("boom")
	failure := Outcome{
		Kind:       OutcomeFailure,
		Data:       handle,
		StatusCode: 404,
		Err:        cause,
		Handle:     handle,
		HandleKey:  HandleKeyXHR,
	}
	fields = failure.Fields()
	if fields["error"] != cause || fields["xhr"] != handle || fields["data"] != handle {
		t.Fatalf("unexpected failure fields: %#v", fields)
	}
}

func TestTokenState_Presence(t *testing.T) {
	state := TokenState{AccessToken: " ", RefreshToken: "refresh"}
	if state.HasAccessToken() {
		t.Fatalf("expected blank access token to be absent")
	}
	if !state.HasRefreshToken() {
		t.Fatalf("expected refresh token to be present")
	}
}
