// Package reconcile derives lifetime totals from the upstream delta
// snapshots.
//
// Cumulative counters are reduced with a running maximum because the
// snapshots may be reordered, truncated or reset upstream; no single
// positional snapshot is trusted. Each key is maximised independently, so
// kills and deaths may come from different snapshots and the resulting K/D
// need not match any real snapshot. Point-in-time values (rank, ratios) are
// read from the first snapshot instead, with rank falling back to the last.
package reconcile

import (
	"math"

	"bf6-tracker/internal/domain"
)

const (
	KeyMatchesPlayed = "matchesPlayed"
	KeyMatchesWon    = "matchesWon"
	KeyMatchesLost   = "matchesLost"
	KeyKills         = "kills"
	KeyDeaths        = "deaths"
	KeyTimePlayed    = "timePlayed"

	KeyCareerRank = "careerPlayerRank"
)

// CumulativeKeys are max-reduced across all snapshots.
var CumulativeKeys = []string{
	KeyMatchesPlayed,
	KeyMatchesWon,
	KeyMatchesLost,
	KeyKills,
	KeyDeaths,
	KeyTimePlayed,
}

// PointInTimeKeys are only meaningful on the snapshot that carries them.
var PointInTimeKeys = []string{
	"kdaRatio",
	"kdRatio",
	"killsPerMinute",
	"scorePerMinute",
	"wlPercentage",
}

// Reconcile is total: every input, including nil, produces a result.
func Reconcile(snapshots []domain.Snapshot) domain.Totals {
	overviews := overviewsOf(snapshots)
	if len(overviews) == 0 {
		return domain.Totals{PointInTime: map[string]domain.StatValue{}}
	}

	resolved := make(map[string]float64, len(CumulativeKeys))
	for _, key := range CumulativeKeys {
		resolved[key] = resolve(overviews, key)
	}

	totals := domain.Totals{
		TotalMatches:    toInt(resolved[KeyMatchesPlayed]),
		TotalWins:       toInt(resolved[KeyMatchesWon]),
		TotalLosses:     toInt(resolved[KeyMatchesLost]),
		TotalKills:      toInt(resolved[KeyKills]),
		TotalDeaths:     toInt(resolved[KeyDeaths]),
		TotalTimePlayed: toInt(resolved[KeyTimePlayed]),
		PointInTime:     pointInTime(overviews),
		SnapshotCount:   len(overviews),
		HasData:         true,
	}
	totals.OverallKD = KDRatio(totals.TotalKills, totals.TotalDeaths)
	totals.WinRate = WinRate(totals.TotalWins, totals.TotalMatches)

	if rank, ok := rankOf(overviews); ok {
		totals.Rank = int(toInt(rank.Value))
		totals.RankImageURL = rank.ImageURL
	}

	return totals
}

// rankOf prefers the first snapshot's rank and falls back to the last one
// when the first carries none.
func rankOf(overviews []map[string]domain.StatValue) (domain.StatValue, bool) {
	if rank, ok := overviews[0][KeyCareerRank]; ok && rank.Value > 0 {
		return rank, true
	}
	rank, ok := overviews[len(overviews)-1][KeyCareerRank]
	return rank, ok && rank.Value > 0
}

// MaxOf returns the largest positive value seen for key, or 0.
func MaxOf(overviews []map[string]domain.StatValue, key string) float64 {
	var best float64
	for _, ov := range overviews {
		if v, ok := ov[key]; ok && v.Value > best {
			best = v.Value
		}
	}
	return best
}

// resolve falls back to the first, then last, snapshot when the max-scan
// found nothing positive.
func resolve(overviews []map[string]domain.StatValue, key string) float64 {
	if best := MaxOf(overviews, key); best != 0 {
		return best
	}
	if v, ok := overviews[0][key]; ok {
		return v.Value
	}
	if v, ok := overviews[len(overviews)-1][key]; ok {
		return v.Value
	}
	return 0
}

func pointInTime(overviews []map[string]domain.StatValue) map[string]domain.StatValue {
	out := make(map[string]domain.StatValue, len(PointInTimeKeys))
	for _, key := range PointInTimeKeys {
		for _, ov := range overviews {
			if v, ok := ov[key]; ok {
				out[key] = v
				break
			}
		}
	}
	return out
}

func overviewsOf(snapshots []domain.Snapshot) []map[string]domain.StatValue {
	out := make([]map[string]domain.StatValue, 0, len(snapshots))
	for _, s := range snapshots {
		if s.HasOverview() {
			out = append(out, s.Overview)
		}
	}
	return out
}

func KDRatio(kills, deaths int64) float64 {
	if deaths == 0 {
		return float64(kills)
	}
	return float64(kills) / float64(deaths)
}

func WinRate(wins, matches int64) float64 {
	if matches == 0 {
		return 0
	}
	return float64(wins) / float64(matches) * 100
}

func toInt(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Round(v))
}
