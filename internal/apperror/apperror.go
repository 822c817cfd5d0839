// Package apperror defines the error kinds the kubeowl core surfaces to
// callers. Handlers map kinds to HTTP status codes; internal layers wrap
// causes with %w so the kind survives propagation.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers.
type Kind string

const (
	// KindValidationFailed marks malformed caller input.
	KindValidationFailed Kind = "VALIDATION_FAILED"

	// KindNotFound marks a missing cluster id or Kubernetes resource.
	KindNotFound Kind = "NOT_FOUND"

	// KindConnectionFailed marks a cluster registration or probe failure.
	KindConnectionFailed Kind = "CONNECTION_FAILED"

	// KindClusterUnreachable marks a transient Kubernetes API failure
	// during a scan or list.
	KindClusterUnreachable Kind = "CLUSTER_UNREACHABLE"

	// KindAIAnalysisFailed marks an LLM pipeline failure. It is never
	// surfaced to callers; the diagnosis engine converts it to a fallback
	// result.
	KindAIAnalysisFailed Kind = "AI_ANALYSIS_FAILED"
)

// Error carries a kind and a human-readable message. The wrapped cause is
// kept for logs but never exposed to callers.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// E builds an Error of the given kind. cause may be nil.
func E(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Errorf builds an Error with a formatted message and no wrapped cause.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the kind of err, or "" when err carries no *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the status code handlers should respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConnectionFailed:
		return http.StatusBadGateway
	case KindClusterUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the caller-facing message for err. Internal details
// from wrapped causes are not included.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
