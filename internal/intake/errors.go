package intake

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a workflow failure. The kind decides the HTTP status and
// whether the client may safely retry.
type Kind string

const (
	KindMalformedPayload   Kind = "MalformedPayload"
	KindValidationError    Kind = "ValidationError"
	KindGatewayUnavailable Kind = "GatewayUnavailable"
	KindStoreWriteFailed   Kind = "StoreWriteFailed"
	KindConfigurationError Kind = "ConfigurationError"
)

// Error carries the public-safe failure description. Message is what the
// caller sees; the wrapped cause stays server-side (logs only) so upstream
// credentials or SQL never leak into a response.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus maps the kind to its HTTP-equivalent status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindMalformedPayload, KindValidationError:
		return http.StatusBadRequest
	case KindGatewayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Malformed(msg string, cause error) *Error {
	return &Error{Kind: KindMalformedPayload, Message: msg, cause: cause}
}

func Invalid(msg string) *Error {
	return &Error{Kind: KindValidationError, Message: msg}
}

// GatewayDown is retryable: no gateway order exists, so a resubmit cannot
// duplicate a charge.
func GatewayDown(msg string, cause error) *Error {
	return &Error{Kind: KindGatewayUnavailable, Message: msg, Retryable: true, cause: cause}
}

func StoreFailed(msg string, cause error) *Error {
	return &Error{Kind: KindStoreWriteFailed, Message: msg, cause: cause}
}

func Misconfigured(msg string) *Error {
	return &Error{Kind: KindConfigurationError, Message: msg}
}

// AsError extracts an *Error from err, wrapping unknown errors as a generic
// non-retryable store-side failure so every response stays structured.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindStoreWriteFailed, Message: "internal error", cause: err}
}
