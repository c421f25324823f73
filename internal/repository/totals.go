package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bf6-tracker/internal/constants"
	"bf6-tracker/internal/db"
	"bf6-tracker/internal/domain"
	"bf6-tracker/internal/reconcile"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// TotalsRecord is one persisted reconciliation.
type TotalsRecord struct {
	ID         string
	PlayerID   string
	Platform   string
	Totals     domain.Totals
	Breakdowns domain.Breakdowns
	FetchedAt  time.Time
}

type TotalsRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewTotalsRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *TotalsRepository {
	return &TotalsRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// Save stores the player row and a new totals row in one transaction and
// trims the player's history to the newest constants.TotalsHistoryLimit rows.
func (r *TotalsRepository) Save(ctx context.Context, player *domain.Player, rec *TotalsRecord) error {
	pointInTime, err := json.Marshal(toStoredStats(rec.Totals.PointInTime))
	if err != nil {
		return fmt.Errorf("failed to encode point-in-time stats: %w", err)
	}
	breakdowns := []byte("{}")
	if len(rec.Breakdowns.Raw) > 0 {
		breakdowns = rec.Breakdowns.Raw
	}

	if rec.ID == "" {
		rec.ID, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now()
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

	t := rec.Totals
	err = qtx.InsertPlayerTotals(ctx, db.InsertPlayerTotalsParams{
		ID:              rec.ID,
		PlayerID:        rec.PlayerID,
		Platform:        rec.Platform,
		TotalMatches:    t.TotalMatches,
		TotalWins:       t.TotalWins,
		TotalLosses:     t.TotalLosses,
		TotalKills:      t.TotalKills,
		TotalDeaths:     t.TotalDeaths,
		TotalTimePlayed: t.TotalTimePlayed,
		OverallKd:       t.OverallKD,
		WinRate:         t.WinRate,
		Rank:            int64(t.Rank),
		RankImageUrl:    t.RankImageURL,
		PointInTime:     string(pointInTime),
		Breakdowns:      string(breakdowns),
		SnapshotCount:   int64(t.SnapshotCount),
		HasData:         t.HasData,
		FetchedAt:       rec.FetchedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to insert totals: %w", err)
	}

	pruned, err := qtx.PrunePlayerTotals(ctx, db.PrunePlayerTotalsParams{
		PlayerID: rec.PlayerID,
		Platform: rec.Platform,
		Keep:     constants.TotalsHistoryLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to prune totals: %w", err)
	}
	if pruned > 0 {
		r.logger.Debug().Str("player_id", rec.PlayerID).Int64("pruned", pruned).Msg("pruned old totals")
	}

	return tx.Commit()
}

func (r *TotalsRepository) Latest(ctx context.Context, playerID, platform string) (*TotalsRecord, error) {
	records, err := r.List(ctx, playerID, platform, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

// List returns the newest records first.
func (r *TotalsRepository) List(ctx context.Context, playerID, platform string, limit int) ([]TotalsRecord, error) {
	rows, err := r.queries.ListPlayerTotals(ctx, db.ListPlayerTotalsParams{
		PlayerID: playerID,
		Platform: platform,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, err
	}

	result := make([]TotalsRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := toTotalsRecord(row)
		if err != nil {
			r.logger.Warn().Err(err).Str("id", row.ID).Msg("skipping unreadable totals row")
			continue
		}
		result = append(result, rec)
	}
	return result, nil
}

type storedStat struct {
	Value        float64 `json:"value"`
	DisplayValue string  `json:"displayValue,omitempty"`
	ImageURL     string  `json:"imageUrl,omitempty"`
}

func toStoredStats(in map[string]domain.StatValue) map[string]storedStat {
	out := make(map[string]storedStat, len(in))
	for k, v := range in {
		out[k] = storedStat{Value: v.Value, DisplayValue: v.DisplayValue, ImageURL: v.ImageURL}
	}
	return out
}

func toTotalsRecord(row db.PlayerTotal) (TotalsRecord, error) {
	var stored map[string]storedStat
	if err := json.Unmarshal([]byte(row.PointInTime), &stored); err != nil {
		return TotalsRecord{}, fmt.Errorf("decode point-in-time stats: %w", err)
	}
	pointInTime := make(map[string]domain.StatValue, len(stored))
	for k, v := range stored {
		pointInTime[k] = domain.StatValue{Value: v.Value, DisplayValue: v.DisplayValue, ImageURL: v.ImageURL}
	}

	breakdowns := reconcile.DecodeBreakdowns(json.RawMessage(row.Breakdowns))

	return TotalsRecord{
		ID:       row.ID,
		PlayerID: row.PlayerID,
		Platform: row.Platform,
		Totals: domain.Totals{
			TotalMatches:    row.TotalMatches,
			TotalWins:       row.TotalWins,
			TotalLosses:     row.TotalLosses,
			TotalKills:      row.TotalKills,
			TotalDeaths:     row.TotalDeaths,
			TotalTimePlayed: row.TotalTimePlayed,
			OverallKD:       row.OverallKd,
			WinRate:         row.WinRate,
			Rank:            int(row.Rank),
			RankImageURL:    row.RankImageUrl,
			PointInTime:     pointInTime,
			SnapshotCount:   int(row.SnapshotCount),
			HasData:         row.HasData,
		},
		Breakdowns: breakdowns,
		FetchedAt:  row.FetchedAt,
	}, nil
}
