package stealth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bf6-tracker/internal/config"
	"bf6-tracker/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLauncher struct {
	calls   atomic.Int32
	closed  atomic.Int32
	release chan struct{}
	err     error
}

func newFakeLauncher(err error) *fakeLauncher {
	return &fakeLauncher{release: make(chan struct{}), err: err}
}

func (f *fakeLauncher) launch(ctx context.Context) (*session, error) {
	f.calls.Add(1)
	<-f.release
	if f.err != nil {
		return nil, f.err
	}
	return &session{ctx: context.Background(), close: func() { f.closed.Add(1) }}, nil
}

func newTestClient(f *fakeLauncher) *Client {
	return newClient(config.BrowserConfig{}, f.launch, metrics.New(), zerolog.Nop())
}

func waitForState(t *testing.T, c *Client, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return c.State() == want }, 2*time.Second, time.Millisecond)
}

func TestLaunchIsSingleFlight(t *testing.T) {
	f := newFakeLauncher(nil)
	c := newTestClient(f)
	assert.Equal(t, StateUninitialized, c.State())

	const callers = 10
	sessions := make(chan *session, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := c.acquire(context.Background())
			assert.NoError(t, err)
			sessions <- s
		}()
	}

	waitForState(t, c, StateLaunching)
	close(f.release)
	wg.Wait()
	close(sessions)

	var first *session
	for s := range sessions {
		require.NotNil(t, s)
		if first == nil {
			first = s
		}
		assert.Same(t, first, s)
	}
	assert.EqualValues(t, 1, f.calls.Load())
	assert.Equal(t, StateReady, c.State())

	s, err := c.acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, s)
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestLaunchFailureRejectsEveryPendingCaller(t *testing.T) {
	boom := errors.New("chrome executable not found")
	f := newFakeLauncher(boom)
	c := newTestClient(f)

	const callers = 8
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := c.Fetch(context.Background(), "https://example.invalid", nil)
			errs <- err
		}()
	}

	waitForState(t, c, StateLaunching)
	close(f.release)

	var first error
	for i := 0; i < callers; i++ {
		select {
		case err := <-errs:
			var launchErr *LaunchError
			require.ErrorAs(t, err, &launchErr)
			assert.ErrorIs(t, err, boom)
			if first == nil {
				first = err
			}
			assert.Same(t, first, err)
		case <-time.After(2 * time.Second):
			t.Fatal("caller hung after launch failure")
		}
	}
	assert.EqualValues(t, 1, f.calls.Load())
	assert.Equal(t, StateFailed, c.State())

	// Future callers get the cached failure without another launch.
	_, err := c.Fetch(context.Background(), "https://example.invalid", nil)
	assert.Same(t, first, err)
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestResetAllowsRelaunch(t *testing.T) {
	f := newFakeLauncher(errors.New("no display"))
	close(f.release)
	c := newTestClient(f)

	_, err := c.acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, c.State())

	f.err = nil
	c.Reset()
	assert.Equal(t, StateUninitialized, c.State())

	s, err := c.acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.EqualValues(t, 2, f.calls.Load())
	assert.Equal(t, StateReady, c.State())

	// Reset only clears failures.
	c.Reset()
	assert.Equal(t, StateReady, c.State())
}

func TestCallerCancellationDoesNotAbortLaunch(t *testing.T) {
	f := newFakeLauncher(nil)
	c := newTestClient(f)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := c.acquire(ctx)
		errs <- err
	}()

	waitForState(t, c, StateLaunching)
	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)

	close(f.release)
	waitForState(t, c, StateReady)

	_, err := c.acquire(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestClose(t *testing.T) {
	f := newFakeLauncher(nil)
	close(f.release)
	c := newTestClient(f)

	_, err := c.acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))
	assert.EqualValues(t, 1, f.closed.Load())
	assert.Equal(t, StateClosed, c.State())

	_, err = c.Fetch(context.Background(), "https://example.invalid", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseDuringLaunchReleasesBrowser(t *testing.T) {
	f := newFakeLauncher(nil)
	c := newTestClient(f)

	errs := make(chan error, 1)
	go func() {
		_, err := c.acquire(context.Background())
		errs <- err
	}()

	waitForState(t, c, StateLaunching)
	require.NoError(t, c.Close(context.Background()))
	close(f.release)

	assert.ErrorIs(t, <-errs, ErrClosed)
	assert.EqualValues(t, 1, f.closed.Load())
}

func TestCloseBeforeLaunchIsNoop(t *testing.T) {
	c := newTestClient(newFakeLauncher(nil))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, StateClosed, c.State())
}
