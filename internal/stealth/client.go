// Package stealth fetches URLs through a shared headless Chrome so that
// requests carry a real browser's network stack and TLS fingerprint.
//
// One browser process is launched lazily and kept for the life of the
// Client. Every Fetch runs in its own browser context and tab, which are
// disposed when the call returns, so cookies and forwarded headers never
// leak between calls.
package stealth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bf6-tracker/internal/config"
	"bf6-tracker/internal/metrics"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type State int

const (
	StateUninitialized State = iota
	StateLaunching
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLaunching:
		return "launching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// session is a running browser. ctx is the chromedp browser context that
// per-request tabs are derived from.
type session struct {
	ctx   context.Context
	close func()
}

type launcher func(ctx context.Context) (*session, error)

type Client struct {
	cfg     config.BrowserConfig
	launch  launcher
	metrics *metrics.Metrics
	logger  zerolog.Logger

	group singleflight.Group

	mu        sync.Mutex
	state     State
	sess      *session
	launchErr error
}

func New(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *Client {
	c := newClient(cfg.Browser, nil, m, logger)
	c.launch = c.launchChrome
	return c
}

func newClient(cfg config.BrowserConfig, launch launcher, m *metrics.Metrics, logger zerolog.Logger) *Client {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}
	if cfg.Locale == "" {
		cfg.Locale = "en-US"
	}
	if cfg.ViewportWidth == 0 || cfg.ViewportHeight == 0 {
		cfg.ViewportWidth, cfg.ViewportHeight = 1920, 1080
	}
	return &Client{
		cfg:     cfg,
		launch:  launch,
		metrics: m,
		logger:  logger.With().Str("component", "stealth").Logger(),
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// acquire returns the running browser, launching it on first use. Concurrent
// callers share a single launch and all observe its outcome.
func (c *Client) acquire(ctx context.Context) (*session, error) {
	c.mu.Lock()
	switch c.state {
	case StateReady:
		s := c.sess
		c.mu.Unlock()
		return s, nil
	case StateFailed:
		err := c.launchErr
		c.mu.Unlock()
		return nil, err
	case StateClosed:
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.mu.Unlock()

	ch := c.group.DoChan("browser", func() (any, error) {
		return c.doLaunch()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) doLaunch() (*session, error) {
	c.mu.Lock()
	switch c.state {
	case StateReady:
		s := c.sess
		c.mu.Unlock()
		return s, nil
	case StateFailed:
		err := c.launchErr
		c.mu.Unlock()
		return nil, err
	case StateClosed:
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.state = StateLaunching
	c.mu.Unlock()

	start := time.Now()
	c.logger.Info().Bool("headless", c.cfg.Headless).Msg("launching browser")

	// The browser outlives whichever request triggered it.
	s, err := c.launch(context.Background())
	c.metrics.ObserveLaunch(err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		if s != nil {
			s.close()
		}
		return nil, ErrClosed
	}
	if err != nil {
		c.state = StateFailed
		c.launchErr = &LaunchError{Err: err}
		c.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("browser launch failed")
		return nil, c.launchErr
	}

	c.state = StateReady
	c.sess = s
	c.logger.Info().Dur("elapsed", time.Since(start)).Msg("browser ready")
	return s, nil
}

// Reset clears a failed launch so the next Fetch tries again. It is a no-op
// in any other state.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateFailed {
		return
	}
	c.state = StateUninitialized
	c.launchErr = nil
	c.logger.Info().Msg("browser launch failure cleared")
}

// Close shuts the browser down. Fetches after Close return ErrClosed.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.state = StateClosed
	c.mu.Unlock()

	if s == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.close()
	}()

	select {
	case <-done:
		c.logger.Info().Msg("browser closed")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("closing browser: %w", ctx.Err())
	}
}

func (c *Client) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.cfg.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("lang", c.cfg.Locale),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.UserAgent(c.cfg.UserAgent),
		chromedp.WindowSize(c.cfg.ViewportWidth, c.cfg.ViewportHeight),
	)
	if c.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ExecPath))
	}
	return opts
}

func (c *Client) launchChrome(ctx context.Context) (*session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			c.logger.Debug().Msgf(format, args...)
		}),
	)

	// Run with no actions starts the process and opens the initial target.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}

	return &session{
		ctx: browserCtx,
		close: func() {
			if err := chromedp.Cancel(browserCtx); err != nil {
				c.logger.Warn().Err(err).Msg("graceful browser shutdown failed")
			}
			browserCancel()
			allocCancel()
		},
	}, nil
}
