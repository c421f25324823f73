package db

import (
	"context"
	"time"
)

const upsertPlayer = `
INSERT INTO players (
    player_id, platform, handle, avatar_url, user_id, is_premium,
    rank, rank_image_url, last_fetch_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (player_id, platform) DO UPDATE SET
    handle = CASE WHEN excluded.handle != '' THEN excluded.handle ELSE players.handle END,
    avatar_url = CASE WHEN excluded.avatar_url != '' THEN excluded.avatar_url ELSE players.avatar_url END,
    user_id = CASE WHEN excluded.user_id != '' THEN excluded.user_id ELSE players.user_id END,
    is_premium = excluded.is_premium,
    rank = excluded.rank,
    rank_image_url = excluded.rank_image_url,
    last_fetch_at = excluded.last_fetch_at,
    updated_at = excluded.updated_at
`

type UpsertPlayerParams struct {
	PlayerID     string
	Platform     string
	Handle       string
	AvatarUrl    string
	UserID       string
	IsPremium    bool
	Rank         int64
	RankImageUrl string
	LastFetchAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) UpsertPlayer(ctx context.Context, arg UpsertPlayerParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayer,
		arg.PlayerID,
		arg.Platform,
		arg.Handle,
		arg.AvatarUrl,
		arg.UserID,
		arg.IsPremium,
		arg.Rank,
		arg.RankImageUrl,
		arg.LastFetchAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getPlayer = `
SELECT player_id, platform, handle, avatar_url, user_id, is_premium,
       rank, rank_image_url, last_fetch_at, created_at, updated_at
FROM players
WHERE player_id = ? AND platform = ?
`

type GetPlayerParams struct {
	PlayerID string
	Platform string
}

func (q *Queries) GetPlayer(ctx context.Context, arg GetPlayerParams) (Player, error) {
	row := q.db.QueryRowContext(ctx, getPlayer, arg.PlayerID, arg.Platform)
	var i Player
	err := row.Scan(
		&i.PlayerID,
		&i.Platform,
		&i.Handle,
		&i.AvatarUrl,
		&i.UserID,
		&i.IsPremium,
		&i.Rank,
		&i.RankImageUrl,
		&i.LastFetchAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getPlayerLastFetchAt = `
SELECT last_fetch_at FROM players WHERE player_id = ? AND platform = ?
`

type GetPlayerLastFetchAtParams struct {
	PlayerID string
	Platform string
}

func (q *Queries) GetPlayerLastFetchAt(ctx context.Context, arg GetPlayerLastFetchAtParams) (time.Time, error) {
	row := q.db.QueryRowContext(ctx, getPlayerLastFetchAt, arg.PlayerID, arg.Platform)
	var lastFetchAt time.Time
	err := row.Scan(&lastFetchAt)
	return lastFetchAt, err
}

const listPlayers = `
SELECT player_id, platform, handle, avatar_url, user_id, is_premium,
       rank, rank_image_url, last_fetch_at, created_at, updated_at
FROM players
ORDER BY last_fetch_at DESC
LIMIT ?
`

func (q *Queries) ListPlayers(ctx context.Context, limit int64) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listPlayers, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(
			&i.PlayerID,
			&i.Platform,
			&i.Handle,
			&i.AvatarUrl,
			&i.UserID,
			&i.IsPremium,
			&i.Rank,
			&i.RankImageUrl,
			&i.LastFetchAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertPlayerTotals = `
INSERT INTO player_totals (
    id, player_id, platform, total_matches, total_wins, total_losses,
    total_kills, total_deaths, total_time_played, overall_kd, win_rate,
    rank, rank_image_url, point_in_time, breakdowns, snapshot_count,
    has_data, fetched_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertPlayerTotalsParams struct {
	ID              string
	PlayerID        string
	Platform        string
	TotalMatches    int64
	TotalWins       int64
	TotalLosses     int64
	TotalKills      int64
	TotalDeaths     int64
	TotalTimePlayed int64
	OverallKd       float64
	WinRate         float64
	Rank            int64
	RankImageUrl    string
	PointInTime     string
	Breakdowns      string
	SnapshotCount   int64
	HasData         bool
	FetchedAt       time.Time
}

func (q *Queries) InsertPlayerTotals(ctx context.Context, arg InsertPlayerTotalsParams) error {
	_, err := q.db.ExecContext(ctx, insertPlayerTotals,
		arg.ID,
		arg.PlayerID,
		arg.Platform,
		arg.TotalMatches,
		arg.TotalWins,
		arg.TotalLosses,
		arg.TotalKills,
		arg.TotalDeaths,
		arg.TotalTimePlayed,
		arg.OverallKd,
		arg.WinRate,
		arg.Rank,
		arg.RankImageUrl,
		arg.PointInTime,
		arg.Breakdowns,
		arg.SnapshotCount,
		arg.HasData,
		arg.FetchedAt,
	)
	return err
}

const playerTotalsColumns = `
SELECT id, player_id, platform, total_matches, total_wins, total_losses,
       total_kills, total_deaths, total_time_played, overall_kd, win_rate,
       rank, rank_image_url, point_in_time, breakdowns, snapshot_count,
       has_data, fetched_at
FROM player_totals
WHERE player_id = ? AND platform = ?
ORDER BY fetched_at DESC
LIMIT ?
`

type ListPlayerTotalsParams struct {
	PlayerID string
	Platform string
	Limit    int64
}

func (q *Queries) ListPlayerTotals(ctx context.Context, arg ListPlayerTotalsParams) ([]PlayerTotal, error) {
	rows, err := q.db.QueryContext(ctx, playerTotalsColumns, arg.PlayerID, arg.Platform, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PlayerTotal
	for rows.Next() {
		var i PlayerTotal
		if err := rows.Scan(
			&i.ID,
			&i.PlayerID,
			&i.Platform,
			&i.TotalMatches,
			&i.TotalWins,
			&i.TotalLosses,
			&i.TotalKills,
			&i.TotalDeaths,
			&i.TotalTimePlayed,
			&i.OverallKd,
			&i.WinRate,
			&i.Rank,
			&i.RankImageUrl,
			&i.PointInTime,
			&i.Breakdowns,
			&i.SnapshotCount,
			&i.HasData,
			&i.FetchedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const prunePlayerTotals = `
DELETE FROM player_totals
WHERE player_id = ? AND platform = ?
  AND id NOT IN (
    SELECT id FROM player_totals
    WHERE player_id = ? AND platform = ?
    ORDER BY fetched_at DESC
    LIMIT ?
  )
`

type PrunePlayerTotalsParams struct {
	PlayerID string
	Platform string
	Keep     int64
}

func (q *Queries) PrunePlayerTotals(ctx context.Context, arg PrunePlayerTotalsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, prunePlayerTotals,
		arg.PlayerID,
		arg.Platform,
		arg.PlayerID,
		arg.Platform,
		arg.Keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertStatPoint = `
INSERT INTO stat_history (
    id, player_id, platform, stat_key, day, value, display_value, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (player_id, platform, stat_key, day) DO UPDATE SET
    value = excluded.value,
    display_value = excluded.display_value,
    updated_at = excluded.updated_at
`

type UpsertStatPointParams struct {
	ID           string
	PlayerID     string
	Platform     string
	StatKey      string
	Day          time.Time
	Value        float64
	DisplayValue string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) UpsertStatPoint(ctx context.Context, arg UpsertStatPointParams) error {
	_, err := q.db.ExecContext(ctx, upsertStatPoint,
		arg.ID,
		arg.PlayerID,
		arg.Platform,
		arg.StatKey,
		arg.Day,
		arg.Value,
		arg.DisplayValue,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

// Most recent N points, returned oldest first.
const listStatHistory = `
SELECT id, player_id, platform, stat_key, day, value, display_value, created_at, updated_at
FROM (
    SELECT id, player_id, platform, stat_key, day, value, display_value, created_at, updated_at
    FROM stat_history
    WHERE player_id = ? AND platform = ? AND stat_key = ?
    ORDER BY day DESC
    LIMIT ?
)
ORDER BY day ASC
`

type ListStatHistoryParams struct {
	PlayerID string
	Platform string
	StatKey  string
	Limit    int64
}

func (q *Queries) ListStatHistory(ctx context.Context, arg ListStatHistoryParams) ([]StatHistory, error) {
	rows, err := q.db.QueryContext(ctx, listStatHistory,
		arg.PlayerID,
		arg.Platform,
		arg.StatKey,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StatHistory
	for rows.Next() {
		var i StatHistory
		if err := rows.Scan(
			&i.ID,
			&i.PlayerID,
			&i.Platform,
			&i.StatKey,
			&i.Day,
			&i.Value,
			&i.DisplayValue,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
