package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bf6-tracker/internal/constants"
	"bf6-tracker/internal/db"
	"bf6-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type StatHistoryRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewStatHistoryRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *StatHistoryRepository {
	return &StatHistoryRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// UpsertBatch stores points keyed by (player, platform, stat, day); a second
// write for the same day replaces the value. The player row must exist.
func (r *StatHistoryRepository) UpsertBatch(ctx context.Context, player *domain.Player, points []domain.StatPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	if err := upsertPlayer(ctx, qtx, player); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := 0; i < len(points); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(points) {
			end = len(points)
		}

		for _, p := range points[i:end] {
			id, err := gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}
			err = qtx.UpsertStatPoint(ctx, db.UpsertStatPointParams{
				ID:           id,
				PlayerID:     player.PlayerID,
				Platform:     player.Platform,
				StatKey:      p.StatKey,
				Day:          p.Day.UTC(),
				Value:        p.Value,
				DisplayValue: p.DisplayValue,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			if err != nil {
				return fmt.Errorf("failed to upsert stat point %s@%s: %w", p.StatKey, p.Day.Format(time.DateOnly), err)
			}
		}
	}

	return tx.Commit()
}

// List returns up to limit of the most recent points, oldest first.
func (r *StatHistoryRepository) List(ctx context.Context, playerID, platform, statKey string, limit int) ([]domain.StatPoint, error) {
	rows, err := r.queries.ListStatHistory(ctx, db.ListStatHistoryParams{
		PlayerID: playerID,
		Platform: platform,
		StatKey:  statKey,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, err
	}

	result := make([]domain.StatPoint, len(rows))
	for i, row := range rows {
		result[i] = domain.StatPoint{
			StatKey:      row.StatKey,
			Day:          row.Day,
			Value:        row.Value,
			DisplayValue: row.DisplayValue,
		}
	}
	return result, nil
}
