package transport

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-apiclient/core"
)

// Parser decodes response payloads by response kind.
type Parser interface {
	Parse(raw any, responseKind string, auxType string) (any, error)
}

const (
	statusNoNetwork   = 0
	statusIENoContent = 1223
)

// RemapStatus applies the legacy status remaps: 0 becomes 200 and 1223
// becomes 204.
func RemapStatus(status int) int {
	switch status {
	case statusNoNetwork:
		return http.StatusOK
	case statusIENoContent:
		return http.StatusNoContent
	default:
		return status
	}
}

// StatusClass returns the leading digit of status, or -1 when status is
// negative.
func StatusClass(status int) int {
	if status < 0 {
		return -1
	}
	for status >= 10 {
		status /= 10
	}
	return status
}

// Normalize maps a raw exchange into an Outcome. Classification uses the
// leading digit of the original status. Exchanges that failed before a status
// was received are failures with status 0.
//
// Failures are returned with a *core.FailureError. Statuses outside the
// success and failure classes yield an unclassified-status error and invoke
// no callback.
func Normalize(exchange core.Exchange, parser Parser, callbacks *core.Callbacks) (core.Outcome, error) {
	outcome := core.Outcome{
		StatusText: exchange.StatusText,
		Handle:     exchange.Handle,
		HandleKey:  exchange.HandleKey,
		Body:       exchange.Body,
	}

	if exchange.Err != nil && exchange.Status == statusNoNetwork {
		outcome.Kind = core.OutcomeFailure
		outcome.StatusCode = statusNoNetwork
		outcome.Data = exchange.Handle
		outcome.Err = exchange.Err
		return fail(outcome, callbacks)
	}

	outcome.StatusCode = RemapStatus(exchange.Status)
	switch StatusClass(exchange.Status) {
	case 0, 1, 2:
		outcome.Kind = core.OutcomeSuccess
		if len(exchange.Body) > 0 {
			kind := exchange.ResponseKind
			if kind == "" {
				kind = exchange.DataType
			}
			data, err := parse(parser, exchange.Body, kind, exchange.DataType)
			if err != nil {
				outcome.Kind = core.OutcomeFailure
				outcome.Err = err
				return outcome, core.NewParseError(err, kind, outcome.StatusCode)
			}
			outcome.Data = data
		}
		if callbacks != nil && callbacks.OnSuccess != nil {
			callbacks.OnSuccess(outcome.Data, outcome.StatusCode, outcome.Handle)
		}
		return outcome, nil
	case 4:
		outcome.Kind = core.OutcomeFailure
		outcome.Data = exchange.Handle
		outcome.Err = exchange.Err
		return fail(outcome, callbacks)
	default:
		outcome.Kind = core.OutcomeUnclassified
		outcome.Err = core.NewUnclassifiedStatusError(exchange.Status, map[string]any{
			"handle_key": exchange.HandleKey,
		})
		return outcome, outcome.Err
	}
}

func fail(outcome core.Outcome, callbacks *core.Callbacks) (core.Outcome, error) {
	if callbacks != nil && callbacks.OnError != nil {
		callbacks.OnError(outcome.Err, outcome.StatusCode, outcome.Handle)
	}
	return outcome, &core.FailureError{Outcome: outcome}
}

func parse(parser Parser, body []byte, kind, auxType string) (any, error) {
	if parser == nil {
		return body, nil
	}
	data, err := parser.Parse(body, kind, auxType)
	if err != nil {
		return nil, fmt.Errorf("transport: parse %s payload: %w", kind, err)
	}
	return data, nil
}
