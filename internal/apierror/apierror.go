package apierror

import (
	"errors"
	"fmt"
	"log/slog"
)

// Kind is the closed classification applied to every failed backend call.
type Kind string

const (
	// KindNetwork indicates the request never produced a response.
	KindNetwork Kind = "NETWORK"
	// KindTimeout indicates the request exceeded its deadline.
	KindTimeout Kind = "TIMEOUT"
	// KindValidation indicates the backend rejected the input (HTTP 400/422).
	KindValidation Kind = "VALIDATION"
	// KindAuthentication indicates missing or invalid credentials (HTTP 401).
	KindAuthentication Kind = "AUTHENTICATION"
	// KindAuthorization indicates the caller lacks permission (HTTP 403).
	KindAuthorization Kind = "AUTHORIZATION"
	// KindNotFound indicates the resource does not exist (HTTP 404).
	KindNotFound Kind = "NOT_FOUND"
	// KindServer indicates a backend failure (HTTP 5xx).
	KindServer Kind = "SERVER"
	// KindUnknown indicates an unrecognized failure.
	KindUnknown Kind = "UNKNOWN"
)

// Error is a classified API failure with a stable kind and a message safe
// to surface to users. The underlying cause is wrapped for logs, never for
// display.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int    // zero when there was no HTTP response
	Details    string // optional backend-provided detail
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// LogValue renders the error as a structured log record. Causes are
// included for observability; they never reach Message.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", string(e.Kind)),
		slog.String("message", e.Message),
	}
	if e.StatusCode != 0 {
		attrs = append(attrs, slog.Int("status", e.StatusCode))
	}
	if e.Details != "" {
		attrs = append(attrs, slog.String("details", e.Details))
	}
	if e.Cause != nil {
		attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	}
	return slog.GroupValue(attrs...)
}

// New creates an Error of the given kind with the kind's standard message.
func New(kind Kind) *Error {
	return &Error{Kind: kind, Message: messageFor(kind)}
}

// Wrap creates an Error of the given kind wrapping a cause.
func Wrap(err error, kind Kind) *Error {
	return &Error{Kind: kind, Message: messageFor(kind), Cause: err}
}

// From extracts a classified Error from an error chain.
func From(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// GetKind returns the Kind from an error chain, or KindUnknown when the
// error was never classified.
func GetKind(err error) Kind {
	if apiErr, ok := From(err); ok {
		return apiErr.Kind
	}
	return KindUnknown
}

// isKind checks whether an error chain carries a specific kind.
func isKind(err error, kind Kind) bool {
	apiErr, ok := From(err)
	return ok && apiErr.Kind == kind
}

// IsNetwork checks if an error is a NETWORK error.
func IsNetwork(err error) bool { return isKind(err, KindNetwork) }

// IsTimeout checks if an error is a TIMEOUT error.
func IsTimeout(err error) bool { return isKind(err, KindTimeout) }

// IsValidation checks if an error is a VALIDATION error.
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsAuthentication checks if an error is an AUTHENTICATION error.
func IsAuthentication(err error) bool { return isKind(err, KindAuthentication) }

// IsAuthorization checks if an error is an AUTHORIZATION error.
func IsAuthorization(err error) bool { return isKind(err, KindAuthorization) }

// IsNotFound checks if an error is a NOT_FOUND error.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsServer checks if an error is a SERVER error.
func IsServer(err error) bool { return isKind(err, KindServer) }

// messageFor returns the user-facing message for a kind. Messages are
// intentionally short and free of backend internals.
func messageFor(kind Kind) string {
	switch kind {
	case KindNetwork:
		return "Unable to reach the server. Please check your connection."
	case KindTimeout:
		return "The request timed out. Please try again."
	case KindValidation:
		return "Some of the provided data is invalid. Please review and retry."
	case KindAuthentication:
		return "Your session has expired or your credentials are invalid. Please sign in again."
	case KindAuthorization:
		return "You do not have permission to perform this action."
	case KindNotFound:
		return "The requested resource was not found."
	case KindServer:
		return "The server encountered an error. Please try again later."
	default:
		return "Something went wrong. Please try again."
	}
}
