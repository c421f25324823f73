package reconcile

import "bf6-tracker/internal/domain"

// LatestBreakdowns returns the metadata breakdowns of the last snapshot that
// has any, scanning back towards the first.
func LatestBreakdowns(snapshots []domain.Snapshot) domain.Breakdowns {
	for i := len(snapshots) - 1; i >= 0; i-- {
		if s := snapshots[i]; s.HasOverview() && !s.Breakdowns.Empty() {
			return s.Breakdowns
		}
	}
	return domain.Breakdowns{}
}

func HighlightsOf(b domain.Breakdowns) domain.Highlights {
	return domain.Highlights{
		MostPlayedGamemode: topBy(b.Gamemodes, "matchesPlayed"),
		MostUsedWeapon:     topBy(b.Weapons, "kills"),
		MostUsedKit:        topBy(b.Kits, "timePlayed"),
	}
}

// topBy picks the entity with the highest positive stat; ties keep the
// earlier entry.
func topBy(entities []domain.EntityStats, stat string) *domain.EntityStats {
	var best *domain.EntityStats
	for i := range entities {
		v := entities[i].Stat(stat)
		if v <= 0 {
			continue
		}
		if best == nil || v > best.Stat(stat) {
			best = &entities[i]
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}
