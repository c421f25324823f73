package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bf6-tracker/internal/api"
	"bf6-tracker/internal/config"
	"bf6-tracker/internal/constants"
	"bf6-tracker/internal/domain"
	"bf6-tracker/internal/metrics"
	"bf6-tracker/internal/platform"
	"bf6-tracker/internal/reconcile"
	"bf6-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type OverviewRequest struct {
	PlayerID  string
	Platform  string
	Refresh   bool
	Forwarded api.Forwarded
}

type OverviewService struct {
	tracker *api.TrackerClient
	players *repository.PlayerRepository
	totals  *repository.TotalsRepository
	metrics *metrics.Metrics
	ttl     time.Duration
	logger  zerolog.Logger
}

func NewOverviewService(
	cfg *config.Config,
	tracker *api.TrackerClient,
	players *repository.PlayerRepository,
	totals *repository.TotalsRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *OverviewService {
	return &OverviewService{
		tracker: tracker,
		players: players,
		totals:  totals,
		metrics: m,
		ttl:     cfg.CacheTTL,
		logger:  logger,
	}
}

// GetOverview returns reconciled lifetime totals for a player. Within the
// cache TTL the last stored reconciliation is returned unless Refresh is set.
func (s *OverviewService) GetOverview(ctx context.Context, req OverviewRequest) (*domain.Overview, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	playerID, slug, err := validate(req.PlayerID, req.Platform)
	if err != nil {
		return nil, err
	}

	log := s.logger.With().Str("player_id", playerID).Str("platform", slug).Logger()
	log.Info().Bool("refresh", req.Refresh).Msg("getting overview")

	if !req.Refresh {
		if cached, ok := s.cached(ctx, playerID, slug, log); ok {
			return cached, nil
		}
	}

	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()

	var (
		raw     []byte
		profile *api.ProfileResponse
	)
	g, gctx := errgroup.WithContext(apiCtx)
	g.Go(func() error {
		var err error
		raw, err = s.tracker.GetMatches(gctx, playerID, slug, req.Forwarded)
		if err != nil {
			return fmt.Errorf("failed to fetch matches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Profile only decorates the response, so its failure is not fatal.
		p, err := s.tracker.GetProfile(gctx, playerID, slug, req.Forwarded)
		if err != nil {
			log.Warn().Err(err).Msg("failed to fetch profile")
			return nil
		}
		profile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("failed to fetch overview")
		return nil, err
	}

	snapshots, err := reconcile.Normalize(raw)
	if err != nil {
		return nil, &api.ParseError{Endpoint: "matches", Err: err}
	}

	totals := reconcile.Reconcile(snapshots)
	breakdowns := reconcile.LatestBreakdowns(snapshots)
	s.metrics.ObserveReconcile(totals.HasData)

	now := time.Now().UTC()
	player := playerFrom(playerID, slug, profile, totals, now)

	rec := &repository.TotalsRecord{
		PlayerID:   playerID,
		Platform:   slug,
		Totals:     totals,
		Breakdowns: breakdowns,
		FetchedAt:  now,
	}
	if err := s.totals.Save(ctx, &player, rec); err != nil {
		log.Warn().Err(err).Msg("failed to persist totals")
	}

	log.Info().
		Int("snapshots", totals.SnapshotCount).
		Bool("has_data", totals.HasData).
		Int64("matches", totals.TotalMatches).
		Float64("kd", totals.OverallKD).
		Msg("overview reconciled")

	return &domain.Overview{
		Player:     player,
		Totals:     totals,
		Highlights: reconcile.HighlightsOf(breakdowns),
		Breakdowns: breakdowns,
		FetchedAt:  now,
	}, nil
}

func (s *OverviewService) cached(ctx context.Context, playerID, slug string, log zerolog.Logger) (*domain.Overview, bool) {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	refresh, err := s.players.ShouldRefresh(dbCtx, playerID, slug, s.ttl)
	if err != nil || refresh {
		return nil, false
	}
	player, err := s.players.Get(dbCtx, playerID, slug)
	if err != nil {
		return nil, false
	}
	rec, err := s.totals.Latest(dbCtx, playerID, slug)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).Msg("failed to load cached totals")
		}
		return nil, false
	}

	log.Info().Time("fetched_at", rec.FetchedAt).Msg("returning cached overview")
	return &domain.Overview{
		Player:     *player,
		Totals:     rec.Totals,
		Highlights: reconcile.HighlightsOf(rec.Breakdowns),
		Breakdowns: rec.Breakdowns,
		FetchedAt:  rec.FetchedAt,
		Cached:     true,
	}, true
}

func playerFrom(playerID, slug string, profile *api.ProfileResponse, totals domain.Totals, now time.Time) domain.Player {
	p := domain.Player{
		PlayerID:     playerID,
		Platform:     slug,
		Rank:         totals.Rank,
		RankImageURL: totals.RankImageURL,
		LastFetchAt:  now,
	}
	if profile != nil {
		p.Handle = profile.Data.PlatformInfo.PlatformUserHandle
		p.AvatarURL = profile.Data.PlatformInfo.AvatarURL
		p.UserID = profile.Data.UserInfo.UserID
		p.IsPremium = profile.Data.UserInfo.IsPremium
	}
	return p
}

func validate(playerID, slug string) (string, string, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return "", "", api.ErrMissingPlayerID
	}
	slug = platform.Normalize(slug)
	if !platform.Valid(slug) {
		return "", "", fmt.Errorf("%w: %q", platform.ErrUnknownPlatform, slug)
	}
	return playerID, slug, nil
}
