package api

import (
	"context"
	"strings"
	"time"

	"bf6-tracker/internal/stealth"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// DirectFetcher issues plain HTTP requests. It satisfies Fetcher for upstreams
// without bot mitigation and for local development.
type DirectFetcher struct {
	client *fasthttp.Client
	logger zerolog.Logger
}

func NewDirectFetcher(logger zerolog.Logger) *DirectFetcher {
	return &DirectFetcher{
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger.With().Str("component", "direct_fetcher").Logger(),
	}
}

func (f *DirectFetcher) Fetch(ctx context.Context, url string, headers map[string]string) (*stealth.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := f.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := f.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	raw := make(map[string]any)
	resp.Header.VisitAll(func(k, v []byte) {
		key := string(k)
		if prev, ok := raw[key].(string); ok {
			raw[key] = prev + "\n" + string(v)
			return
		}
		raw[key] = string(v)
	})

	// The response is released on return, so the body must be copied out.
	body := append([]byte(nil), resp.Body()...)

	f.logger.Debug().Str("url", url).Int("status", resp.StatusCode()).Int("bytes", len(body)).Msg("direct fetch completed")

	out := stealth.NewResponse(resp.StatusCode(), strings.TrimSpace(string(resp.Header.StatusMessage())), stealth.SanitizeHeaders(raw), body)
	out.URL = url
	return out, nil
}
