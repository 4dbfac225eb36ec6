package transport

import (
	"errors"
	"testing"

	"github.com/goliatone/go-apiclient/codec"
	"github.com/goliatone/go-apiclient/core"
)

type callbackRecorder struct {
	successes int
	errors    int
	data      any
	status    int
	handle    any
	err       error
}

func (r *callbackRecorder) callbacks() *core.Callbacks {
	return &core.Callbacks{
		OnSuccess: func(data any, status int, handle any) {
			r.successes++
			r.data, r.status, r.handle = data, status, handle
		},
		OnError: func(err error, status int, handle any) {
			r.errors++
			r.err, r.status, r.handle = err, status, handle
		},
	}
}

func TestNormalize_StatusRemaps(t *testing.T) {
	parser := codec.New(core.EnvironmentStandalone)
	tests := []struct {
		name     string
		status   int
		expected int
	}{
		{"file protocol", 0, 200},
		{"ie no content", 1223, 204},
		{"ok", 200, 200},
		{"created", 201, 201},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := Normalize(core.Exchange{Status: tt.status, HandleKey: core.HandleKeyXHR}, parser, nil)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if !outcome.Succeeded() {
				t.Fatalf("expected success, got %s", outcome.Kind)
			}
			if outcome.StatusCode != tt.expected {
				t.Fatalf("expected status %d, got %d", tt.expected, outcome.StatusCode)
			}
		})
	}
}

func TestNormalize_SuccessParsesAndCallsBack(t *testing.T) {
	recorder := &callbackRecorder{}
	handle := &XHRHandle{Status: 200}
	outcome, err := Normalize(core.Exchange{
		Status:       200,
		Body:         []byte(`{"a":1}`),
		ResponseKind: "application/json",
		Handle:       handle,
		HandleKey:    core.HandleKeyXHR,
	}, codec.New(core.EnvironmentHosted), recorder.callbacks())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	data, ok := outcome.Data.(map[string]any)
	if !ok || data["a"] != float64(1) {
		t.Fatalf("expected parsed payload, got %#v", outcome.Data)
	}
	if recorder.successes != 1 || recorder.errors != 0 || recorder.status != 200 || recorder.handle != handle {
		t.Fatalf("unexpected callback state %#v", recorder)
	}
	fields := outcome.Fields()
	if fields["xhr"] != handle || fields["status"] != 200 {
		t.Fatalf("unexpected outcome fields %#v", fields)
	}
}

func TestNormalize_FallsBackToDataType(t *testing.T) {
	outcome, err := Normalize(core.Exchange{
		Status:    200,
		Body:      []byte(`[1,2]`),
		DataType:  "json",
		HandleKey: core.HandleKeyResponse,
	}, codec.New(core.EnvironmentStandalone), nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if items, ok := outcome.Data.([]any); !ok || len(items) != 2 {
		t.Fatalf("expected parsed array, got %#v", outcome.Data)
	}
}

func TestNormalize_ParseFailure(t *testing.T) {
	outcome, err := Normalize(core.Exchange{
		Status:       200,
		Body:         []byte(`{broken`),
		ResponseKind: "json",
	}, codec.New(core.EnvironmentStandalone), nil)
	if !core.HasTextCode(err, core.ErrorTextParseFailed) {
		t.Fatalf("expected parse failure, got %v", err)
	}
	if outcome.StatusCode != 200 {
		t.Fatalf("expected status to be kept, got %d", outcome.StatusCode)
	}
}

func TestNormalize_ClientErrorRejects(t *testing.T) {
	recorder := &callbackRecorder{}
	handle := &XHRHandle{Status: 404}
	outcome, err := Normalize(core.Exchange{
		Status:    404,
		Body:      []byte(`{"error":"missing"}`),
		Handle:    handle,
		HandleKey: core.HandleKeyXHR,
	}, codec.New(core.EnvironmentHosted), recorder.callbacks())
	failure, ok := core.AsFailure(err)
	if !ok {
		t.Fatalf("expected failure error, got %v", err)
	}
	if failure.StatusCode() != 404 || outcome.Kind != core.OutcomeFailure {
		t.Fatalf("unexpected failure outcome %#v", outcome)
	}
	if outcome.Data != handle {
		t.Fatalf("expected failure data to be the raw handle")
	}
	if recorder.errors != 1 || recorder.successes != 0 || recorder.status != 404 {
		t.Fatalf("unexpected callback state %#v", recorder)
	}
	if string(outcome.Body) != `{"error":"missing"}` {
		t.Fatalf("expected raw body on failure outcome")
	}
}

func TestNormalize_NetworkFailureHasStatusZero(t *testing.T) {
	recorder := &callbackRecorder{}
	cause := errors.New("connection refused")
	outcome, err := Normalize(core.Exchange{Err: cause, HandleKey: core.HandleKeyResponse}, nil, recorder.callbacks())
	failure, ok := core.AsFailure(err)
	if !ok {
		t.Fatalf("expected failure error, got %v", err)
	}
	if failure.StatusCode() != 0 || outcome.StatusCode != 0 {
		t.Fatalf("expected status 0, got %d", outcome.StatusCode)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected failure to unwrap to network error")
	}
	if recorder.errors != 1 || recorder.err != cause {
		t.Fatalf("expected error callback with network error")
	}
}

func TestNormalize_UnclassifiedStatusesReject(t *testing.T) {
	for _, status := range []int{301, 304, 500, 503} {
		recorder := &callbackRecorder{}
		outcome, err := Normalize(core.Exchange{Status: status}, nil, recorder.callbacks())
		if !core.IsUnclassifiedStatus(err) {
			t.Fatalf("status %d: expected unclassified error, got %v", status, err)
		}
		if outcome.Kind != core.OutcomeUnclassified {
			t.Fatalf("status %d: expected unclassified outcome, got %s", status, outcome.Kind)
		}
		if recorder.errors != 0 || recorder.successes != 0 {
			t.Fatalf("status %d: expected no callbacks", status)
		}
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]int{0: 0, 7: 7, 204: 2, 404: 4, 1223: 1, -1: -1}
	for status, expected := range tests {
		if got := StatusClass(status); got != expected {
			t.Fatalf("StatusClass(%d)=%d, expected %d", status, got, expected)
		}
	}
}
