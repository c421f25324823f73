package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bf6-tracker/internal/db"
	"bf6-tracker/internal/domain"

	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("not found")

type PlayerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *PlayerRepository) Get(ctx context.Context, playerID, platform string) (*domain.Player, error) {
	player, err := r.queries.GetPlayer(ctx, db.GetPlayerParams{PlayerID: playerID, Platform: platform})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := toDomainPlayer(player)
	return &p, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	return upsertPlayer(ctx, r.queries, player)
}

func (r *PlayerRepository) List(ctx context.Context, limit int) ([]domain.Player, error) {
	players, err := r.queries.ListPlayers(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	result := make([]domain.Player, len(players))
	for i, p := range players {
		result[i] = toDomainPlayer(p)
	}
	return result, nil
}

func (r *PlayerRepository) ShouldRefresh(ctx context.Context, playerID, platform string, ttl time.Duration) (bool, error) {
	lastFetchAt, err := r.queries.GetPlayerLastFetchAt(ctx, db.GetPlayerLastFetchAtParams{
		PlayerID: playerID,
		Platform: platform,
	})
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug().Str("player_id", playerID).Str("platform", platform).Msg("player not found, should refresh")
		return true, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("player_id", playerID).Msg("failed to get player")
		return false, err
	}

	timeSince := time.Since(lastFetchAt)
	shouldRefresh := timeSince > ttl
	r.logger.Debug().
		Str("player_id", playerID).
		Str("platform", platform).
		Time("last_fetch_at", lastFetchAt).
		Dur("time_since", timeSince).
		Dur("ttl", ttl).
		Bool("should_refresh", shouldRefresh).
		Msg("checking if player should refresh")

	return shouldRefresh, nil
}

func upsertPlayer(ctx context.Context, q *db.Queries, player *domain.Player) error {
	now := time.Now().UTC()
	createdAt := player.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	lastFetchAt := player.LastFetchAt
	if lastFetchAt.IsZero() {
		lastFetchAt = now
	}
	err := q.UpsertPlayer(ctx, db.UpsertPlayerParams{
		PlayerID:     player.PlayerID,
		Platform:     player.Platform,
		Handle:       player.Handle,
		AvatarUrl:    player.AvatarURL,
		UserID:       player.UserID,
		IsPremium:    player.IsPremium,
		Rank:         int64(player.Rank),
		RankImageUrl: player.RankImageURL,
		LastFetchAt:  lastFetchAt.UTC(),
		CreatedAt:    createdAt.UTC(),
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert player %s/%s: %w", player.Platform, player.PlayerID, err)
	}
	return nil
}

func toDomainPlayer(p db.Player) domain.Player {
	return domain.Player{
		PlayerID:     p.PlayerID,
		Platform:     p.Platform,
		Handle:       p.Handle,
		AvatarURL:    p.AvatarUrl,
		UserID:       p.UserID,
		IsPremium:    p.IsPremium,
		Rank:         int(p.Rank),
		RankImageURL: p.RankImageUrl,
		LastFetchAt:  p.LastFetchAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
