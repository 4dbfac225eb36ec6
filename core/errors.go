package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorTextBuildFailed         = "REQUEST_BUILD_FAILED"
	ErrorTextUnsupportedDataType = "REQUEST_UNSUPPORTED_DATA_TYPE"
	ErrorTextInvalidPayload      = "REQUEST_INVALID_PAYLOAD"
	ErrorTextUnclassifiedStatus  = "RESPONSE_UNCLASSIFIED_STATUS"
	ErrorTextParseFailed         = "RESPONSE_PARSE_FAILED"
	ErrorTextNetworkFailure      = "TRANSPORT_NETWORK_FAILURE"
	ErrorTextStoreFailed         = "SESSION_STORE_FAILED"
	ErrorTextRefreshFailed       = "SESSION_REFRESH_FAILED"
	ErrorTextInternal            = "INTERNAL_ERROR"
	ErrorTextBadInput            = "BAD_INPUT"
)

// NewBuildError reports malformed caller input detected before any I/O.
func NewBuildError(message string, metadata map[string]any) *goerrors.Error {
	return newError(message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorTextBuildFailed, metadata)
}

// NewUnsupportedPayloadError reports a payload handler invoked in an
// environment that cannot support it.
func NewUnsupportedPayloadError(dataType string, env Environment) *goerrors.Error {
	return newError(
		fmt.Sprintf("error:request:unsupported:data_type: %s is not supported in the %s environment", dataType, env),
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		ErrorTextUnsupportedDataType,
		map[string]any{"data_type": dataType, "environment": string(env)},
	)
}

func NewInvalidPayloadError(source error, message string, metadata map[string]any) *goerrors.Error {
	return wrapError(source, goerrors.CategoryBadInput, message, http.StatusBadRequest, ErrorTextInvalidPayload, metadata)
}

func NewUnclassifiedStatusError(status int, metadata map[string]any) *goerrors.Error {
	fields := cloneFields(metadata)
	fields["status_code"] = status
	return newError(
		fmt.Sprintf("response: unclassified status %d", status),
		goerrors.CategoryExternal,
		http.StatusBadGateway,
		ErrorTextUnclassifiedStatus,
		fields,
	)
}

func NewParseError(source error, responseKind string, status int) *goerrors.Error {
	return wrapError(
		source,
		goerrors.CategoryExternal,
		"response: parse payload",
		http.StatusBadGateway,
		ErrorTextParseFailed,
		map[string]any{"response_kind": responseKind, "status_code": status},
	)
}

// NewNetworkError reports an exchange that produced no HTTP status.
func NewNetworkError(source error, message string, metadata map[string]any) *goerrors.Error {
	return wrapError(source, goerrors.CategoryExternal, message, http.StatusBadGateway, ErrorTextNetworkFailure, metadata)
}

func IsNetworkFailure(err error) bool {
	return HasTextCode(err, ErrorTextNetworkFailure)
}

func NewStoreError(source error, key string) *goerrors.Error {
	return wrapError(
		source,
		goerrors.CategoryInternal,
		"session: credential store access failed",
		http.StatusInternalServerError,
		ErrorTextStoreFailed,
		map[string]any{"key": key},
	)
}

func NewRefreshError(source error, message string, metadata map[string]any) *goerrors.Error {
	return wrapError(source, goerrors.CategoryAuth, message, http.StatusUnauthorized, ErrorTextRefreshFailed, metadata)
}

func NewInternalError(message string, metadata map[string]any) *goerrors.Error {
	return newError(message, goerrors.CategoryInternal, http.StatusInternalServerError, ErrorTextInternal, metadata)
}

func newError(message string, category goerrors.Category, code int, textCode string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func wrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	if source == nil {
		return newError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// HasTextCode reports whether err carries a go-errors envelope with textCode.
func HasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), textCode)
}

func IsBuildError(err error) bool {
	return HasTextCode(err, ErrorTextBuildFailed)
}

func IsUnsupportedPayload(err error) bool {
	return HasTextCode(err, ErrorTextUnsupportedDataType)
}

func IsUnclassifiedStatus(err error) bool {
	return HasTextCode(err, ErrorTextUnclassifiedStatus)
}

// FailureError is the rejection value of a failed exchange. It carries the
// normalized outcome unchanged.
type FailureError struct {
	Outcome Outcome
}

func (e *FailureError) Error() string {
	if e == nil {
		return "request failed"
	}
	if e.Outcome.StatusCode == 0 {
		if e.Outcome.Err != nil {
			return fmt.Sprintf("request failed: network error: %v", e.Outcome.Err)
		}
		return "request failed: network error"
	}
	if e.Outcome.Err != nil {
		return fmt.Sprintf("request failed with status %d: %v", e.Outcome.StatusCode, e.Outcome.Err)
	}
	return fmt.Sprintf("request failed with status %d", e.Outcome.StatusCode)
}

func (e *FailureError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Outcome.Err
}

// StatusCode returns the normalized status of the failed exchange.
func (e *FailureError) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Outcome.StatusCode
}

// AsFailure extracts the rejected outcome from err.
func AsFailure(err error) (*FailureError, bool) {
	var failure *FailureError
	if errors.As(err, &failure) && failure != nil {
		return failure, true
	}
	return nil, false
}
