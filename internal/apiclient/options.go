package apiclient

import (
	"net/http"
	"net/url"
	"time"
)

// requestConfig carries per-call configuration assembled from RequestOptions.
type requestConfig struct {
	headers         http.Header
	query           url.Values
	timeout         time.Duration
	withCredentials bool
	noAuthRetry     bool
}

func newRequestConfig(opts []RequestOption) requestConfig {
	cfg := requestConfig{
		headers: make(http.Header),
		query:   make(url.Values),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// RequestOption customizes a single request.
type RequestOption func(*requestConfig)

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(cfg *requestConfig) {
		cfg.headers.Add(key, value)
	}
}

// WithQuery adds a query parameter to the request.
func WithQuery(key, value string) RequestOption {
	return func(cfg *requestConfig) {
		cfg.query.Add(key, value)
	}
}

// WithTimeout overrides the client's default per-request timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(cfg *requestConfig) {
		cfg.timeout = d
	}
}

// WithCredentials sends the request through the cookie-carrying client.
func WithCredentials() RequestOption {
	return func(cfg *requestConfig) {
		cfg.withCredentials = true
	}
}

// WithoutAuthRetry disables the automatic refresh-and-retry on 401.
// The auth flow endpoints use this so a failing refresh surfaces exactly
// one AUTHENTICATION error instead of recursing.
func WithoutAuthRetry() RequestOption {
	return func(cfg *requestConfig) {
		cfg.noAuthRetry = true
	}
}
