package stealth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// Fetch performs a GET of url in a fresh browsing context with headers
// forwarded on the navigation request.
//
// The navigation is bounded by the configured timeout and is not retried.
// Cancelling ctx aborts this navigation only; the shared browser and other
// in-flight fetches are unaffected.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	s, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.fetch(ctx, s, url, headers)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", url).Dur("elapsed", time.Since(start)).Msg("browser fetch failed")
		return nil, err
	}

	c.logger.Debug().
		Str("url", url).
		Int("status", resp.Status).
		Int("bytes", len(resp.Bytes())).
		Dur("elapsed", time.Since(start)).
		Msg("browser fetch completed")
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, s *session, url string, headers map[string]string) (*Response, error) {
	tabCtx, cancelTab := chromedp.NewContext(s.ctx, chromedp.WithNewBrowserContext())
	c.metrics.ContextOpened()
	defer func() {
		cancelTab()
		c.metrics.ContextClosed()
	}()

	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var (
		mu    sync.Mutex
		doc   *network.Response
		docID network.RequestID
	)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument {
			return
		}
		mu.Lock()
		doc, docID = e.Response, e.RequestID
		mu.Unlock()
	})

	if err := chromedp.Run(tabCtx, c.contextSetup(headers)); err != nil {
		return nil, c.classify(ctx, nil, fmt.Errorf("prepare browsing context: %w", err))
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, c.cfg.NavigationTimeout)
	defer cancelNav()

	navErr := chromedp.Run(navCtx, chromedp.Navigate(url))

	mu.Lock()
	resp, id := doc, docID
	mu.Unlock()

	answered := responded(ctx, navCtx, resp)
	if navErr != nil && !answered {
		return nil, c.classify(ctx, navCtx, fmt.Errorf("navigate %s: %w", url, navErr))
	}
	if resp == nil {
		return nil, ErrNoResponse
	}

	var body []byte
	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		body, err = network.GetResponseBody(id).Do(ctx)
		return err
	}))
	switch {
	case err == nil:
	case navErr != nil && answered:
		c.logger.Debug().Err(navErr).Str("url", url).Int64("status", resp.Status).Msg("navigation failed after response, body unavailable")
		body = nil
	default:
		return nil, c.classify(ctx, navCtx, fmt.Errorf("read response body: %w", err))
	}

	out := NewResponse(int(resp.Status), resp.StatusText, SanitizeHeaders(map[string]any(resp.Headers)), body)
	out.URL = resp.URL
	return out, nil
}

// responded reports whether a navigation that errored still produced a
// document response worth returning. Chrome fails the navigation of an error
// status with an empty body (net::ERR_HTTP_RESPONSE_CODE_FAILURE) even though
// the response arrived. Cancellation and timeouts always win.
func responded(callerCtx, navCtx context.Context, resp *network.Response) bool {
	return resp != nil && callerCtx.Err() == nil && navCtx.Err() == nil
}

// contextSetup applies the per-context fingerprint: user agent, locale,
// timezone, viewport and the forwarded request headers.
func (c *Client) contextSetup(headers map[string]string) chromedp.Tasks {
	forwarded := toHeader(headers)
	ua := c.cfg.UserAgent
	if v := forwarded.Get("User-Agent"); v != "" {
		ua = v
	}
	acceptLanguage := c.cfg.Locale + ",en;q=0.9"
	if v := forwarded.Get("Accept-Language"); v != "" {
		acceptLanguage = v
	}

	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(ua).
			WithAcceptLanguage(acceptLanguage).
			WithPlatform("Win32"),
		emulation.SetLocaleOverride().WithLocale(c.cfg.Locale),
		emulation.SetTimezoneOverride(c.cfg.Timezone),
		emulation.SetDeviceMetricsOverride(int64(c.cfg.ViewportWidth), int64(c.cfg.ViewportHeight), 1, false),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriver).Do(ctx)
			return err
		}),
	}
	if extra := sanitizeRequestHeaders(headers); len(extra) > 0 {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers(extra)))
	}
	return tasks
}

// classify maps chromedp failures onto the package errors. A cancelled
// caller wins over a timeout.
func (c *Client) classify(callerCtx, navCtx context.Context, err error) error {
	if callerCtx.Err() != nil {
		return fmt.Errorf("fetch aborted: %w", callerCtx.Err())
	}
	if navCtx != nil && errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrNavigationTimeout, c.cfg.NavigationTimeout)
	}
	return err
}

func toHeader(in map[string]string) http.Header {
	h := make(http.Header, len(in))
	for k, v := range in {
		h.Set(k, v)
	}
	return h
}
