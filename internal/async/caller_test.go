package async

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salinaworks/salina-go/internal/apierror"
)

func TestCaller_SuccessCommitsDataAndClearsError(t *testing.T) {
	var committed []string
	c := New(OnSuccess(func(v []string) { committed = v }))

	got, err := c.Execute(context.Background(), func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, []string{"a", "b"}, committed)

	snap := c.Snapshot()
	assert.Equal(t, []string{"a", "b"}, snap.Data)
	assert.Empty(t, snap.Err)
	assert.False(t, snap.IsLoading)
}

func TestCaller_FailureClassifiesAndSurfacesMessage(t *testing.T) {
	var seen *apierror.Error
	c := New(OnError[int](func(e *apierror.Error) { seen = e }))

	_, err := c.Execute(context.Background(), func(context.Context) (int, error) {
		return 0, apierror.New(apierror.KindNotFound)
	})
	require.Error(t, err)
	assert.True(t, apierror.IsNotFound(err))
	require.NotNil(t, seen)
	assert.Equal(t, apierror.KindNotFound, seen.Kind)

	snap := c.Snapshot()
	assert.NotEmpty(t, snap.Err, "failure surfaces a user-facing message")
	assert.False(t, snap.IsLoading)
}

func TestCaller_UnclassifiedErrorGetsClassified(t *testing.T) {
	c := New[string]()

	_, err := c.Execute(context.Background(), func(context.Context) (string, error) {
		return "", errors.New("something odd")
	})
	require.Error(t, err)

	apiErr, ok := apierror.From(err)
	require.True(t, ok, "raw errors come back classified")
	assert.Equal(t, apierror.KindUnknown, apiErr.Kind)
}

func TestCaller_LoadingVisibleDuringExecute(t *testing.T) {
	c := New[int]()
	inFlight := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Execute(context.Background(), func(context.Context) (int, error) {
			close(inFlight)
			<-release
			return 7, nil
		})
	}()

	<-inFlight
	assert.True(t, c.Snapshot().IsLoading)
	close(release)
	<-done
	assert.False(t, c.Snapshot().IsLoading)
}

func TestCaller_OverlappingExecutes_LaterStartedWins(t *testing.T) {
	c := New[string]()

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Execute(context.Background(), func(context.Context) (string, error) {
			close(firstStarted)
			<-releaseFirst // first call resolves last
			return "stale", nil
		})
	}()

	<-firstStarted

	got, err := c.Execute(context.Background(), func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	close(releaseFirst)
	wg.Wait()

	// The first call still returned its own data to its caller, but the
	// shared state belongs to the later-started call.
	assert.Equal(t, "fresh", c.Snapshot().Data)
}

func TestCaller_StaleFailureDoesNotOverwriteFreshError(t *testing.T) {
	var errorCallbacks int
	c := New(OnError[string](func(*apierror.Error) { errorCallbacks++ }))

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Execute(context.Background(), func(context.Context) (string, error) {
			close(firstStarted)
			<-releaseFirst
			return "", apierror.New(apierror.KindServer)
		})
	}()

	<-firstStarted

	_, err := c.Execute(context.Background(), func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	close(releaseFirst)
	wg.Wait()

	snap := c.Snapshot()
	assert.Empty(t, snap.Err, "superseded failure must not dirty the state")
	assert.Equal(t, "ok", snap.Data)
	assert.Zero(t, errorCallbacks, "callbacks fire only on commit")
}

func TestCaller_ResetClearsStateAndFencesInFlight(t *testing.T) {
	c := New[int]()

	_, err := c.Execute(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, c.Snapshot().Data)

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Execute(context.Background(), func(context.Context) (int, error) {
			close(started)
			<-release
			return 99, nil
		})
	}()

	<-started
	c.Reset()
	close(release)
	wg.Wait()

	snap := c.Snapshot()
	assert.Zero(t, snap.Data, "reset wins over the superseded in-flight call")
	assert.Empty(t, snap.Err)
	assert.False(t, snap.IsLoading)
}

func TestCaller_HTTPStatusErrorsKeepTheirKind(t *testing.T) {
	c := New[struct{}]()

	_, err := c.Execute(context.Background(), func(context.Context) (struct{}, error) {
		return struct{}{}, apierror.FromStatus(http.StatusForbidden, nil)
	})
	require.Error(t, err)
	assert.True(t, apierror.IsAuthorization(err))
}
