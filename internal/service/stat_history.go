package service

import (
	"context"
	"fmt"
	"time"

	"bf6-tracker/internal/api"
	"bf6-tracker/internal/constants"
	"bf6-tracker/internal/domain"
	"bf6-tracker/internal/reconcile"
	"bf6-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type StatHistoryRequest struct {
	PlayerID  string
	Platform  string
	Stat      string
	Forwarded api.Forwarded
}

type StatHistoryService struct {
	tracker *api.TrackerClient
	players *repository.PlayerRepository
	history *repository.StatHistoryRepository
	totals  *repository.TotalsRepository
	logger  zerolog.Logger
}

func NewStatHistoryService(
	tracker *api.TrackerClient,
	players *repository.PlayerRepository,
	history *repository.StatHistoryRepository,
	totals *repository.TotalsRepository,
	logger zerolog.Logger,
) *StatHistoryService {
	return &StatHistoryService{
		tracker: tracker,
		players: players,
		history: history,
		totals:  totals,
		logger:  logger,
	}
}

// GetStatHistory fetches a daily series for kdRatio or wlPercentage, merges
// it into the stored series and returns the most recent points.
func (s *StatHistoryService) GetStatHistory(ctx context.Context, req StatHistoryRequest) (*domain.StatHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	playerID, slug, err := validate(req.PlayerID, req.Platform)
	if err != nil {
		return nil, err
	}
	if !api.SupportedStat(req.Stat) {
		return nil, fmt.Errorf("%w: %q", api.ErrUnsupportedStat, req.Stat)
	}

	log := s.logger.With().Str("player_id", playerID).Str("platform", slug).Str("stat", req.Stat).Logger()
	log.Info().Msg("getting stat history")

	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()

	resp, err := s.tracker.GetStatHistory(apiCtx, playerID, slug, req.Stat, req.Forwarded)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch stat history")
		return nil, fmt.Errorf("failed to fetch stat history: %w", err)
	}

	fetched := toPoints(req.Stat, resp.Data.History.Data)
	points := fetched

	// The history rows hang off the player row; reuse the stored one so its
	// profile fields and fetch time survive the upsert.
	player, err := s.players.Get(ctx, playerID, slug)
	if err != nil {
		player = &domain.Player{PlayerID: playerID, Platform: slug}
	}
	if err := s.history.UpsertBatch(ctx, player, fetched); err != nil {
		log.Warn().Err(err).Msg("failed to persist stat history")
	} else if stored, err := s.history.List(ctx, playerID, slug, req.Stat, constants.StatHistoryLimit); err == nil {
		points = stored
	} else {
		log.Warn().Err(err).Msg("failed to load stored stat history")
	}

	name := resp.Data.History.Metadata.Name
	if name == "" {
		name = req.Stat
	}

	out := &domain.StatHistory{
		PlayerID: playerID,
		Platform: slug,
		StatKey:  req.Stat,
		Name:     name,
		Points:   points,
	}
	if len(points) > 0 {
		out.Current = points[len(points)-1].Value
	} else {
		out.Current = s.fallbackCurrent(ctx, playerID, slug, req.Stat)
	}

	log.Info().Int("points", len(points)).Float64("current", out.Current).Msg("stat history fetched")
	return out, nil
}

// fallbackCurrent uses the reconciled ratio when upstream has no series.
func (s *StatHistoryService) fallbackCurrent(ctx context.Context, playerID, slug, stat string) float64 {
	rec, err := s.totals.Latest(ctx, playerID, slug)
	if err != nil {
		return 0
	}
	switch stat {
	case api.StatKDRatio:
		return rec.Totals.OverallKD
	case api.StatWLPercentage:
		return rec.Totals.WinRate
	}
	return 0
}

func toPoints(stat string, entries []api.HistoryEntry) []domain.StatPoint {
	points := make([]domain.StatPoint, 0, len(entries))
	for _, e := range entries {
		day := reconcile.ParseTimestamp(e.Date)
		if day.IsZero() {
			continue
		}
		points = append(points, domain.StatPoint{
			StatKey:      stat,
			Day:          day.UTC().Truncate(24 * time.Hour),
			Value:        e.Value,
			DisplayValue: e.DisplayValue,
		})
	}
	return points
}
