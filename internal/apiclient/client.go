package apiclient

// Package apiclient implements the generic request executor. It issues
// typed JSON calls against the backend, attaches the persisted access
// token, and converts every failure into a classified *apierror.Error.
// It never mutates session state; token refresh is delegated to a wired
// Refresher owned by the auth service.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"

	"github.com/salinaworks/salina-go/internal/apierror"
)

const defaultTimeout = 30 * time.Second

// maxResponseBody caps how much of a response body is read into memory.
const maxResponseBody = 10 << 20

// TokenSource supplies the current access token. An empty string means no
// token is available and the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Refresher exchanges the refresh token for a new access token and owns
// the persistence side effects. The executor calls it at most once per
// request when a 401 comes back.
type Refresher interface {
	RefreshAccessToken(ctx context.Context) (string, error)
}

// Client is the generic request executor.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jarClient  *http.Client // same transport, carries cookies
	tokens     TokenSource
	refresher  Refresher
	logger     *slog.Logger
	timeout    time.Duration
	alwaysJar  bool

	// refreshGroup collapses concurrent 401-triggered refreshes into one
	// upstream call so a burst of expired-token requests cannot stampede
	// the refresh endpoint.
	refreshGroup singleflight.Group
}

// Option customizes the client at construction time.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger used for failure records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithDefaultTimeout sets the default per-request timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTokenSource wires the persisted token lookup.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithCredentialsByDefault sends every request through the cookie-jar
// client, as if each call site passed WithCredentials.
func WithCredentialsByDefault() Option {
	return func(c *Client) { c.alwaysJar = true }
}

// New creates a request executor for the given backend base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	jarHTTP := *c.httpClient
	jarHTTP.Jar = jar
	c.jarClient = &jarHTTP

	return c, nil
}

// SetRefresher wires the refresh-on-401 hook. It lives outside New because
// the refresher (the auth service) is itself built on this client.
func (c *Client) SetRefresher(r Refresher) {
	c.refresher = r
}

// BaseURL returns the configured backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do issues a request and decodes a 2xx JSON response into out (skipped when
// out is nil or the body is empty). Any failure is returned as a classified
// *apierror.Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	cfg := newRequestConfig(opts)
	if c.alwaysJar {
		cfg.withCredentials = true
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apierror.Wrap(fmt.Errorf("encode request body: %w", err), apierror.KindUnknown)
		}
		payload = data
	}

	timeout := cfg.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	requestID := uuid.NewString()
	op := method + " " + path

	status, respBody, err := c.send(ctx, method, path, payload, cfg, requestID)
	if err != nil {
		apiErr := apierror.Classify(err)
		apierror.Observe(ctx, c.logger, apiErr, op)
		return apiErr
	}

	if status == http.StatusUnauthorized && !cfg.noAuthRetry && c.refresher != nil {
		if token, refreshErr := c.refreshToken(ctx); refreshErr == nil && token != "" {
			status, respBody, err = c.send(ctx, method, path, payload, cfg, requestID)
			if err != nil {
				apiErr := apierror.Classify(err)
				apierror.Observe(ctx, c.logger, apiErr, op)
				return apiErr
			}
		}
	}

	if status < 200 || status > 299 {
		apiErr := apierror.FromStatus(status, respBody)
		apierror.Observe(ctx, c.logger, apiErr, op)
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		apiErr := apierror.Wrap(fmt.Errorf("decode response: %w", err), apierror.KindUnknown)
		apierror.Observe(ctx, c.logger, apiErr, op)
		return apiErr
	}
	return nil
}

// Do issues a request through a client and decodes the response as T.
func Do[T any](ctx context.Context, c *Client, method, path string, body any, opts ...RequestOption) (T, error) {
	var out T
	if err := c.Do(ctx, method, path, body, &out, opts...); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// send performs one HTTP round trip and returns the status and body.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, cfg requestConfig, requestID string) (int, []byte, error) {
	target := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(cfg.query) > 0 {
		target += "?" + cfg.query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range cfg.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	if c.tokens != nil {
		token, tokenErr := c.tokens.Token(ctx)
		if tokenErr != nil {
			return 0, nil, fmt.Errorf("read access token: %w", tokenErr)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpClient := c.httpClient
	if cfg.withCredentials {
		httpClient = c.jarClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// refreshToken funnels all concurrent refresh attempts through one call.
// The flight is shared by every goroutine that hit a 401, so it runs on a
// context detached from whichever request happened to start it; that
// request's deadline must not fail the other waiters.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	value, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.refresher.RefreshAccessToken(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	token, _ := value.(string)
	return token, nil
}
