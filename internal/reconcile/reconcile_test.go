package reconcile

import (
	"math/rand"
	"testing"

	"bf6-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(stats map[string]float64) domain.Snapshot {
	ov := make(map[string]domain.StatValue, len(stats))
	for k, v := range stats {
		ov[k] = domain.StatValue{Value: v}
	}
	return domain.Snapshot{Overview: ov}
}

func TestReconcileTakesIndependentMaxima(t *testing.T) {
	totals := Reconcile([]domain.Snapshot{
		snap(map[string]float64{"kills": 5, "deaths": 2}),
		snap(map[string]float64{"kills": 3, "deaths": 4}),
		snap(map[string]float64{"kills": 8, "deaths": 1}),
	})

	assert.Equal(t, int64(8), totals.TotalKills)
	assert.Equal(t, int64(4), totals.TotalDeaths)
	assert.InDelta(t, 2.0, totals.OverallKD, 1e-9)
	assert.True(t, totals.HasData)
	assert.Equal(t, 3, totals.SnapshotCount)
}

func TestReconcileEmpty(t *testing.T) {
	for name, in := range map[string][]domain.Snapshot{
		"nil":         nil,
		"empty":       {},
		"no overview": {{ID: "a"}, {ID: "b"}},
	} {
		t.Run(name, func(t *testing.T) {
			totals := Reconcile(in)
			assert.False(t, totals.HasData)
			assert.Zero(t, totals.TotalMatches)
			assert.Zero(t, totals.TotalWins)
			assert.Zero(t, totals.TotalLosses)
			assert.Zero(t, totals.TotalKills)
			assert.Zero(t, totals.TotalDeaths)
			assert.Zero(t, totals.TotalTimePlayed)
			assert.Zero(t, totals.OverallKD)
			assert.Zero(t, totals.WinRate)
			assert.NotNil(t, totals.PointInTime)
		})
	}
}

func TestReconcileZeroDeaths(t *testing.T) {
	totals := Reconcile([]domain.Snapshot{snap(map[string]float64{"kills": 12})})
	assert.Equal(t, int64(0), totals.TotalDeaths)
	assert.Equal(t, 12.0, totals.OverallKD)
}

func TestReconcileWinRate(t *testing.T) {
	totals := Reconcile([]domain.Snapshot{
		snap(map[string]float64{"matchesPlayed": 40, "matchesWon": 10, "matchesLost": 30}),
		snap(map[string]float64{"matchesPlayed": 20, "matchesWon": 12}),
	})
	assert.Equal(t, int64(40), totals.TotalMatches)
	assert.Equal(t, int64(12), totals.TotalWins)
	assert.Equal(t, int64(30), totals.TotalLosses)
	assert.InDelta(t, 30.0, totals.WinRate, 1e-9)
}

func TestReconcileSkipsSnapshotsWithoutOverview(t *testing.T) {
	totals := Reconcile([]domain.Snapshot{
		{ID: "no-overview"},
		snap(map[string]float64{"kills": 4}),
	})
	assert.Equal(t, 1, totals.SnapshotCount)
	assert.Equal(t, int64(4), totals.TotalKills)
}

func TestReconcileFallsBackWhenMaxIsZero(t *testing.T) {
	t.Run("first snapshot value", func(t *testing.T) {
		totals := Reconcile([]domain.Snapshot{
			snap(map[string]float64{"timePlayed": -5}),
			snap(map[string]float64{"timePlayed": -9}),
		})
		assert.Equal(t, int64(-5), totals.TotalTimePlayed)
	})

	t.Run("last snapshot when first lacks key", func(t *testing.T) {
		totals := Reconcile([]domain.Snapshot{
			snap(map[string]float64{"kills": 1}),
			snap(map[string]float64{}),
			snap(map[string]float64{"timePlayed": -3}),
		})
		assert.Equal(t, int64(-3), totals.TotalTimePlayed)
	})

	t.Run("absent everywhere", func(t *testing.T) {
		totals := Reconcile([]domain.Snapshot{snap(map[string]float64{"kills": 1})})
		assert.Zero(t, totals.TotalMatches)
	})
}

func TestReconcileRankFromFirstSnapshot(t *testing.T) {
	first := snap(map[string]float64{"kills": 1})
	first.Overview[KeyCareerRank] = domain.StatValue{Value: 42, ImageURL: "https://img/42.png"}
	last := snap(map[string]float64{"kills": 2})
	last.Overview[KeyCareerRank] = domain.StatValue{Value: 99, ImageURL: "https://img/99.png"}

	totals := Reconcile([]domain.Snapshot{first, last})
	assert.Equal(t, 42, totals.Rank)
	assert.Equal(t, "https://img/42.png", totals.RankImageURL)
}

func TestReconcileRankFallsBackToLastSnapshot(t *testing.T) {
	first := snap(map[string]float64{"kills": 1})
	middle := snap(map[string]float64{"kills": 2})
	middle.Overview[KeyCareerRank] = domain.StatValue{Value: 55}
	last := snap(map[string]float64{"kills": 3})
	last.Overview[KeyCareerRank] = domain.StatValue{Value: 99, ImageURL: "https://img/99.png"}

	totals := Reconcile([]domain.Snapshot{first, middle, last})
	assert.Equal(t, 99, totals.Rank)
	assert.Equal(t, "https://img/99.png", totals.RankImageURL)

	zeroFirst := snap(map[string]float64{"kills": 1})
	zeroFirst.Overview[KeyCareerRank] = domain.StatValue{Value: 0}
	totals = Reconcile([]domain.Snapshot{zeroFirst, last})
	assert.Equal(t, 99, totals.Rank)

	totals = Reconcile([]domain.Snapshot{first, middle})
	assert.Zero(t, totals.Rank)
	assert.Empty(t, totals.RankImageURL)
}

func TestReconcilePointInTimeNotMaxScanned(t *testing.T) {
	totals := Reconcile([]domain.Snapshot{
		snap(map[string]float64{"kdaRatio": 1.2}),
		snap(map[string]float64{"kdaRatio": 3.4, "scorePerMinute": 250}),
	})
	assert.Equal(t, 1.2, totals.PointInTime["kdaRatio"].Value)
	assert.Equal(t, 250.0, totals.PointInTime["scorePerMinute"].Value)
	_, ok := totals.PointInTime["wlPercentage"]
	assert.False(t, ok)
}

func TestReconcileTotalEqualsMaxProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(12)
		snapshots := make([]domain.Snapshot, n)
		expected := make(map[string]float64)
		for j := range snapshots {
			stats := make(map[string]float64)
			for _, key := range CumulativeKeys {
				if rng.Intn(4) == 0 {
					continue
				}
				v := float64(1 + rng.Intn(10000))
				stats[key] = v
				if v > expected[key] {
					expected[key] = v
				}
			}
			snapshots[j] = snap(stats)
		}

		totals := Reconcile(snapshots)
		assert.Equal(t, int64(expected[KeyMatchesPlayed]), totals.TotalMatches)
		assert.Equal(t, int64(expected[KeyMatchesWon]), totals.TotalWins)
		assert.Equal(t, int64(expected[KeyMatchesLost]), totals.TotalLosses)
		assert.Equal(t, int64(expected[KeyKills]), totals.TotalKills)
		assert.Equal(t, int64(expected[KeyDeaths]), totals.TotalDeaths)
		assert.Equal(t, int64(expected[KeyTimePlayed]), totals.TotalTimePlayed)

		shuffled := append([]domain.Snapshot(nil), snapshots...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		again := Reconcile(shuffled)
		require.Equal(t, totals.TotalMatches, again.TotalMatches)
		require.Equal(t, totals.TotalWins, again.TotalWins)
		require.Equal(t, totals.TotalLosses, again.TotalLosses)
		require.Equal(t, totals.TotalKills, again.TotalKills)
		require.Equal(t, totals.TotalDeaths, again.TotalDeaths)
		require.Equal(t, totals.TotalTimePlayed, again.TotalTimePlayed)
		require.Equal(t, totals.OverallKD, again.OverallKD)
		require.Equal(t, totals.WinRate, again.WinRate)
	}
}

func TestHighlightsOf(t *testing.T) {
	b := domain.Breakdowns{
		Gamemodes: []domain.EntityStats{
			{Key: "conquest", Stats: map[string]float64{"matchesPlayed": 10}},
			{Key: "breakthrough", Stats: map[string]float64{"matchesPlayed": 25}},
		},
		Weapons: []domain.EntityStats{
			{Key: "m4", Stats: map[string]float64{"kills": 0}},
		},
		Kits: []domain.EntityStats{
			{Key: "assault", Stats: map[string]float64{"timePlayed": 300}},
			{Key: "support", Stats: map[string]float64{"timePlayed": 300}},
		},
	}

	h := HighlightsOf(b)
	require.NotNil(t, h.MostPlayedGamemode)
	assert.Equal(t, "breakthrough", h.MostPlayedGamemode.Key)
	assert.Nil(t, h.MostUsedWeapon)
	require.NotNil(t, h.MostUsedKit)
	assert.Equal(t, "assault", h.MostUsedKit.Key)
}
