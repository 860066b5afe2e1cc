package async

// Package async provides a reusable wrapper around arbitrary backend
// calls, exposing a (data, error message, loading) snapshot to call sites.
// Overlapping executions are fenced by a monotonic generation counter so
// only the most recently initiated call commits its result, regardless of
// completion order.

import (
	"context"
	"log/slog"
	"sync"

	"github.com/salinaworks/salina-go/internal/apierror"
)

// Snapshot is the observable state of a Caller.
type Snapshot[T any] struct {
	Data      T
	Err       string // user-facing message, "" when none
	IsLoading bool
}

// Caller wraps an async function with loading/error bookkeeping.
// The zero value is not usable; construct with New.
type Caller[T any] struct {
	mu      sync.Mutex
	gen     uint64
	data    T
	errMsg  string
	loading bool

	onSuccess func(T)
	onError   func(*apierror.Error)
	logger    *slog.Logger
}

// Option configures a Caller.
type Option[T any] func(*Caller[T])

// OnSuccess registers a callback invoked with each committed result.
func OnSuccess[T any](fn func(T)) Option[T] {
	return func(c *Caller[T]) { c.onSuccess = fn }
}

// OnError registers a callback invoked with each committed failure.
func OnError[T any](fn func(*apierror.Error)) Option[T] {
	return func(c *Caller[T]) { c.onError = fn }
}

// WithLogger sets the logger used for failure records.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(c *Caller[T]) { c.logger = logger }
}

// New creates a Caller.
func New[T any](opts ...Option[T]) *Caller[T] {
	c := &Caller[T]{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs fn, committing its result only if no newer Execute started
// in the meantime. The classified result is returned to the caller either
// way; callbacks fire only on commit.
func (c *Caller[T]) Execute(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	c.gen++
	myGen := c.gen
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	data, err := fn(ctx)

	c.mu.Lock()
	if c.gen != myGen {
		// A newer call supersedes this one; its result owns the state.
		c.mu.Unlock()
		if err != nil {
			var zero T
			return zero, apierror.Classify(err)
		}
		return data, nil
	}

	if err != nil {
		apiErr := apierror.Classify(err)
		c.errMsg = apiErr.Message
		c.loading = false
		onError := c.onError
		c.mu.Unlock()

		apierror.Observe(ctx, c.logger, apiErr, "async call")
		if onError != nil {
			onError(apiErr)
		}
		var zero T
		return zero, apiErr
	}

	c.data = data
	c.errMsg = ""
	c.loading = false
	onSuccess := c.onSuccess
	c.mu.Unlock()

	if onSuccess != nil {
		onSuccess(data)
	}
	return data, nil
}

// Snapshot returns the current observable state.
func (c *Caller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{Data: c.data, Err: c.errMsg, IsLoading: c.loading}
}

// Reset clears data and error and invalidates any in-flight call.
func (c *Caller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	var zero T
	c.data = zero
	c.errMsg = ""
	c.loading = false
}
