package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bf6-tracker/internal/config"
	"bf6-tracker/internal/metrics"
	"bf6-tracker/internal/platform"
	"bf6-tracker/internal/stealth"

	"github.com/rs/zerolog"
)

const (
	StatKDRatio      = "kdRatio"
	StatWLPercentage = "wlPercentage"
)

const (
	endpointMatches     = "matches"
	endpointProfile     = "profile"
	endpointStatHistory = "stat_history"
)

var (
	ErrMissingPlayerID = errors.New("player id is required")
	ErrUnsupportedStat = errors.New("unsupported stat")
)

// Fetcher performs a GET and hands back the full response. A non-2xx status
// is not an error at this level.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (*stealth.Response, error)
}

type TrackerClient struct {
	base       string
	updateHash string
	userAgent  string
	fetcher    Fetcher
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewTrackerClient(cfg *config.Config, fetcher Fetcher, m *metrics.Metrics, logger zerolog.Logger) *TrackerClient {
	return &TrackerClient{
		base:       strings.TrimRight(cfg.TrackerAPIBase, "/"),
		updateHash: cfg.TrackerUpdateHash,
		userAgent:  cfg.Browser.UserAgent,
		fetcher:    fetcher,
		metrics:    m,
		logger:     logger.With().Str("component", "tracker").Logger(),
	}
}

func (c *TrackerClient) MatchesURL(playerID, slug string) (string, error) {
	seg, id, err := pathParts(playerID, slug, platform.FamilyMatches)
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/matches/%s/%s", c.base, seg, id)
	if c.updateHash != "" {
		u += "?updateHash=" + url.QueryEscape(c.updateHash)
	}
	return u, nil
}

func (c *TrackerClient) ProfileURL(playerID, slug string) (string, error) {
	seg, id, err := pathParts(playerID, slug, platform.FamilyProfile)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/profile/%s/%s", c.base, seg, id), nil
}

func (c *TrackerClient) StatHistoryURL(playerID, slug, stat string) (string, error) {
	if !SupportedStat(stat) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedStat, stat)
	}
	seg, id, err := pathParts(playerID, slug, platform.FamilyStatHistory)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/profile/%s/%s/stats/overview/%s", c.base, seg, id, stat), nil
}

// GetMatches returns the raw match-history payload. Decoding is left to the
// reconciler, which tolerates several shapes.
func (c *TrackerClient) GetMatches(ctx context.Context, playerID, slug string, fwd Forwarded) ([]byte, error) {
	u, err := c.MatchesURL(playerID, slug)
	if err != nil {
		return nil, err
	}
	resp, err := c.fetch(ctx, endpointMatches, u, fwd)
	if err != nil {
		return nil, err
	}
	return resp.Bytes(), nil
}

func (c *TrackerClient) GetProfile(ctx context.Context, playerID, slug string, fwd Forwarded) (*ProfileResponse, error) {
	u, err := c.ProfileURL(playerID, slug)
	if err != nil {
		return nil, err
	}
	return doRequest[ProfileResponse](ctx, c, endpointProfile, u, fwd)
}

func (c *TrackerClient) GetStatHistory(ctx context.Context, playerID, slug, stat string, fwd Forwarded) (*StatHistoryResponse, error) {
	u, err := c.StatHistoryURL(playerID, slug, stat)
	if err != nil {
		return nil, err
	}
	return doRequest[StatHistoryResponse](ctx, c, endpointStatHistory, u, fwd)
}

func doRequest[T any](ctx context.Context, c *TrackerClient, endpoint, u string, fwd Forwarded) (*T, error) {
	resp, err := c.fetch(ctx, endpoint, u, fwd)
	if err != nil {
		return nil, err
	}

	var result T
	if err := resp.JSON(&result); err != nil {
		return nil, &ParseError{Endpoint: endpoint, Err: err}
	}
	return &result, nil
}

func (c *TrackerClient) fetch(ctx context.Context, endpoint, u string, fwd Forwarded) (*stealth.Response, error) {
	start := time.Now()
	resp, err := c.fetcher.Fetch(ctx, u, BrowserHeaders(fwd, c.userAgent))
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.ObserveFetch(endpoint, "error", elapsed)
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	if !resp.OK() {
		c.metrics.ObserveFetch(endpoint, "status", elapsed)
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.Status).
			Dur("elapsed", elapsed).
			Msg("upstream returned non-success status")
		return nil, &StatusError{Endpoint: endpoint, Code: resp.Status, Text: resp.StatusText}
	}

	c.metrics.ObserveFetch(endpoint, "ok", elapsed)
	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("bytes", len(resp.Bytes())).
		Dur("elapsed", elapsed).
		Msg("upstream fetch completed")
	return resp, nil
}

func SupportedStat(stat string) bool {
	return stat == StatKDRatio || stat == StatWLPercentage
}

func pathParts(playerID, slug string, family platform.Family) (string, string, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return "", "", ErrMissingPlayerID
	}
	seg, err := platform.Segment(slug, family)
	if err != nil {
		return "", "", err
	}
	return seg, url.PathEscape(playerID), nil
}
