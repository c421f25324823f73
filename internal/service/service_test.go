package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bf6-tracker/internal/api"
	"bf6-tracker/internal/config"
	"bf6-tracker/internal/database"
	"bf6-tracker/internal/db"
	"bf6-tracker/internal/metrics"
	"bf6-tracker/internal/platform"
	"bf6-tracker/internal/repository"
	"bf6-tracker/internal/stealth"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchesBody = `{"data":{"matches":[
 {"attributes":{"id":"m2"},"metadata":{"timestamp":"2025-10-12T20:00:00+00:00"},
  "segments":[{"type":"overview",
   "metadata":{"gamemodes":[{"key":"conquest","metadata":{"name":"Conquest"},"stats":{"matchesPlayed":6}},
                            {"key":"breakthrough","metadata":{"name":"Breakthrough"},"stats":{"matchesPlayed":2}}],
               "weapons":[{"key":"m4a1","metadata":{"name":"M4A1"},"stats":{"kills":40}}],
               "kits":[{"key":"assault","metadata":{"name":"Assault"},"stats":{"timePlayed":1200}}]},
   "stats":{"matchesPlayed":{"value":8,"displayValue":"8"},
            "matchesWon":{"value":5,"displayValue":"5"},
            "kills":{"value":0,"displayValue":"0"},
            "deaths":{"value":4,"displayValue":"4"},
            "kdRatio":{"value":2.1,"displayValue":"2.10"},
            "careerPlayerRank":{"value":21,"displayValue":"21","metadata":{"imageUrl":"https://example.com/21.png"}}}}]},
 {"attributes":{"id":"m1"},"metadata":{"timestamp":"2025-10-11T20:00:00+00:00"},
  "segments":[{"type":"overview","stats":{"matchesPlayed":{"value":5},"kills":{"value":8},"deaths":{"value":2}}}]}
]}}`

const profileBody = `{"data":{"platformInfo":{"platformUserHandle":"Sniper#1","avatarUrl":"https://example.com/a.png"},"userInfo":{"userId":"u1","isPremium":true}}}`

const historyBody = `{"data":{"history":{"metadata":{"key":"kdRatio","name":"K/D Ratio"},"data":[
 ["2025-10-10T00:00:00+00:00",{"value":1.5,"displayValue":"1.50"}],
 ["2025-10-11T00:00:00+00:00",{"value":1.75,"displayValue":"1.75"}]]}}}`

type route struct {
	status int
	body   string
	err    error
}

// routeFetcher answers by URL substring.
type routeFetcher struct {
	mu     sync.Mutex
	routes map[string]route
	calls  map[string]int
}

func newRouteFetcher(routes map[string]route) *routeFetcher {
	return &routeFetcher{routes: routes, calls: map[string]int{}}
}

func (f *routeFetcher) Fetch(ctx context.Context, url string, headers map[string]string) (*stealth.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, r := range f.routes {
		if strings.Contains(url, key) {
			f.calls[key]++
			if r.err != nil {
				return nil, r.err
			}
			return stealth.NewResponse(r.status, "", nil, []byte(r.body)), nil
		}
	}
	return stealth.NewResponse(404, "", nil, []byte(`{}`)), nil
}

func (f *routeFetcher) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

type fixture struct {
	overview *OverviewService
	history  *StatHistoryService
	totals   *repository.TotalsRepository
}

func newFixture(t *testing.T, f api.Fetcher) fixture {
	t.Helper()
	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "svc.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := &config.Config{
		CacheTTL:          time.Minute,
		TrackerAPIBase:    "https://api.tracker.gg/api/v2/bf6/standard",
		TrackerUpdateHash: "HASH",
	}
	m := metrics.New()
	q := db.New(sqlDB)
	tracker := api.NewTrackerClient(cfg, f, m, zerolog.Nop())
	players := repository.NewPlayerRepository(sqlDB, q, zerolog.Nop())
	totals := repository.NewTotalsRepository(sqlDB, q, zerolog.Nop())
	history := repository.NewStatHistoryRepository(sqlDB, q, zerolog.Nop())

	return fixture{
		overview: NewOverviewService(cfg, tracker, players, totals, m, zerolog.Nop()),
		history:  NewStatHistoryService(tracker, players, history, totals, zerolog.Nop()),
		totals:   totals,
	}
}

func TestGetOverview(t *testing.T) {
	f := newRouteFetcher(map[string]route{
		"/matches/": {status: 200, body: matchesBody},
		"/profile/": {status: 200, body: profileBody},
	})
	fx := newFixture(t, f)

	got, err := fx.overview.GetOverview(context.Background(), OverviewRequest{PlayerID: "42", Platform: "origin"})
	require.NoError(t, err)
	assert.False(t, got.Cached)

	tot := got.Totals
	assert.True(t, tot.HasData)
	assert.EqualValues(t, 8, tot.TotalMatches)
	assert.EqualValues(t, 8, tot.TotalKills)
	assert.EqualValues(t, 4, tot.TotalDeaths)
	assert.Equal(t, 2.0, tot.OverallKD)
	assert.Equal(t, 21, tot.Rank)

	assert.Equal(t, "Sniper#1", got.Player.Handle)
	assert.True(t, got.Player.IsPremium)
	assert.Equal(t, 21, got.Player.Rank)

	require.NotNil(t, got.Highlights.MostPlayedGamemode)
	assert.Equal(t, "Conquest", got.Highlights.MostPlayedGamemode.Name)
	require.NotNil(t, got.Highlights.MostUsedWeapon)
	assert.Equal(t, "M4A1", got.Highlights.MostUsedWeapon.Name)
	require.NotNil(t, got.Highlights.MostUsedKit)
	assert.Equal(t, "Assault", got.Highlights.MostUsedKit.Name)

	rec, err := fx.totals.Latest(context.Background(), "42", "origin")
	require.NoError(t, err)
	assert.Equal(t, tot, rec.Totals)
}

func TestGetOverviewUsesCacheWithinTTL(t *testing.T) {
	f := newRouteFetcher(map[string]route{
		"/matches/": {status: 200, body: matchesBody},
		"/profile/": {status: 200, body: profileBody},
	})
	fx := newFixture(t, f)
	ctx := context.Background()

	first, err := fx.overview.GetOverview(ctx, OverviewRequest{PlayerID: "42", Platform: "origin"})
	require.NoError(t, err)

	second, err := fx.overview.GetOverview(ctx, OverviewRequest{PlayerID: "42", Platform: "origin"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, "Sniper#1", second.Player.Handle)
	require.NotNil(t, second.Highlights.MostPlayedGamemode)
	assert.Equal(t, "Conquest", second.Highlights.MostPlayedGamemode.Name)
	assert.Equal(t, 1, f.count("/matches/"))

	third, err := fx.overview.GetOverview(ctx, OverviewRequest{PlayerID: "42", Platform: "origin", Refresh: true})
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, f.count("/matches/"))
}

func TestGetOverviewProfileFailureIsNotFatal(t *testing.T) {
	f := newRouteFetcher(map[string]route{
		"/matches/": {status: 200, body: matchesBody},
		"/profile/": {status: 403, body: `forbidden`},
	})
	fx := newFixture(t, f)

	got, err := fx.overview.GetOverview(context.Background(), OverviewRequest{PlayerID: "42", Platform: "xbl"})
	require.NoError(t, err)
	assert.Empty(t, got.Player.Handle)
	assert.EqualValues(t, 8, got.Totals.TotalMatches)
}

func TestGetOverviewNoData(t *testing.T) {
	f := newRouteFetcher(map[string]route{
		"/matches/": {status: 200, body: `{"data":{"matches":[]}}`},
		"/profile/": {status: 200, body: profileBody},
	})
	fx := newFixture(t, f)

	got, err := fx.overview.GetOverview(context.Background(), OverviewRequest{PlayerID: "42"})
	require.NoError(t, err)
	assert.False(t, got.Totals.HasData)
	assert.Zero(t, got.Totals.TotalMatches)
	assert.Equal(t, platform.Origin, got.Player.Platform)
}

func TestGetOverviewErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    OverviewRequest
		routes map[string]route
		check  func(t *testing.T, err error)
	}{
		{
			name:  "missing player id",
			req:   OverviewRequest{Platform: "origin"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, api.ErrMissingPlayerID) },
		},
		{
			name:  "unknown platform",
			req:   OverviewRequest{PlayerID: "42", Platform: "stadia"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, platform.ErrUnknownPlatform) },
		},
		{
			name:   "upstream status",
			req:    OverviewRequest{PlayerID: "42"},
			routes: map[string]route{"/matches/": {status: 404, body: `{}`}},
			check: func(t *testing.T, err error) {
				var se *api.StatusError
				require.ErrorAs(t, err, &se)
				assert.True(t, se.NotFound())
			},
		},
		{
			name:   "launch failure",
			req:    OverviewRequest{PlayerID: "42"},
			routes: map[string]route{"/": {err: &stealth.LaunchError{Err: errors.New("no chrome")}}},
			check: func(t *testing.T, err error) {
				var le *stealth.LaunchError
				assert.ErrorAs(t, err, &le)
			},
		},
		{
			name:   "malformed payload",
			req:    OverviewRequest{PlayerID: "42"},
			routes: map[string]route{"/matches/": {status: 200, body: `{"data":`}},
			check: func(t *testing.T, err error) {
				var pe *api.ParseError
				assert.ErrorAs(t, err, &pe)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, newRouteFetcher(tt.routes))
			_, err := fx.overview.GetOverview(context.Background(), tt.req)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGetStatHistory(t *testing.T) {
	f := newRouteFetcher(map[string]route{
		"/stats/overview/kdRatio": {status: 200, body: historyBody},
	})
	fx := newFixture(t, f)

	got, err := fx.history.GetStatHistory(context.Background(), StatHistoryRequest{PlayerID: "42", Platform: "xbl", Stat: api.StatKDRatio})
	require.NoError(t, err)
	assert.Equal(t, "K/D Ratio", got.Name)
	assert.Equal(t, "xbl", got.Platform)
	require.Len(t, got.Points, 2)
	assert.Equal(t, 1.5, got.Points[0].Value)
	assert.True(t, got.Points[0].Day.Equal(time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1.75, got.Current)
}

func TestGetStatHistoryFallsBackToTotals(t *testing.T) {
	f := newRouteFetcher(map[string]route{
		"/matches/":                    {status: 200, body: matchesBody},
		"/profile/ign/42":              {status: 200, body: profileBody},
		"/stats/overview/wlPercentage": {status: 200, body: `{"data":{"history":{"metadata":{"key":"wlPercentage"},"data":[]}}}`},
	})
	fx := newFixture(t, f)
	ctx := context.Background()

	ov, err := fx.overview.GetOverview(ctx, OverviewRequest{PlayerID: "42", Platform: "origin"})
	require.NoError(t, err)

	got, err := fx.history.GetStatHistory(ctx, StatHistoryRequest{PlayerID: "42", Platform: "origin", Stat: api.StatWLPercentage})
	require.NoError(t, err)
	assert.Empty(t, got.Points)
	assert.Equal(t, "wlPercentage", got.Name)
	assert.Equal(t, ov.Totals.WinRate, got.Current)
}

func TestGetStatHistoryRejectsUnsupportedStat(t *testing.T) {
	fx := newFixture(t, newRouteFetcher(nil))
	_, err := fx.history.GetStatHistory(context.Background(), StatHistoryRequest{PlayerID: "42", Stat: "score"})
	assert.ErrorIs(t, err, api.ErrUnsupportedStat)
}
