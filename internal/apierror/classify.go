package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
)

// Classify maps a raw transport failure into a classified Error.
// Absence of a response means NETWORK; an exceeded deadline means TIMEOUT;
// anything unrecognized means UNKNOWN. Already-classified errors pass
// through unchanged so double classification cannot rewrite a kind.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	if apiErr, ok := From(err); ok {
		return apiErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return Wrap(err, KindTimeout)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Wrap(err, KindTimeout)
		}
		return Wrap(err, KindNetwork)
	}

	// url.Error wraps every transport-level failure from http.Client.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return Wrap(err, KindTimeout)
		}
		return Wrap(err, KindNetwork)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Wrap(err, KindNetwork)
	}

	return Wrap(err, KindUnknown)
}

// errorBody is the subset of the backend's error payload we surface.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

// FromStatus maps an HTTP status and response body into a classified Error.
// The mapping is fixed:
//
//	400, 422     VALIDATION
//	401          AUTHENTICATION
//	403          AUTHORIZATION
//	404          NOT_FOUND
//	5xx          SERVER
//	anything else UNKNOWN
//
// A backend-provided message, when present, is kept as Details only; the
// user-facing Message stays the stable per-kind text.
func FromStatus(status int, body []byte) *Error {
	var kind Kind
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindValidation
	case status == http.StatusUnauthorized:
		kind = KindAuthentication
	case status == http.StatusForbidden:
		kind = KindAuthorization
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status >= 500 && status <= 599:
		kind = KindServer
	default:
		kind = KindUnknown
	}

	apiErr := New(kind)
	apiErr.StatusCode = status
	apiErr.Details = extractDetail(body)
	return apiErr
}

// extractDetail pulls a short backend message out of a JSON error body.
// Non-JSON bodies are dropped rather than surfaced.
func extractDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	switch {
	case eb.Message != "":
		return eb.Message
	case eb.Error != "":
		return eb.Error
	default:
		return eb.Detail
	}
}

// Observe emits one structured log record for a classified failure.
// Classification itself stays pure; callers log at the boundary.
func Observe(ctx context.Context, logger *slog.Logger, apiErr *Error, op string) {
	if logger == nil || apiErr == nil {
		return
	}
	logger.ErrorContext(ctx, "api call failed",
		slog.String("op", op),
		slog.Any("error", apiErr),
	)
}
