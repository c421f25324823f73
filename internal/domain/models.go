package domain

import (
	"encoding/json"
	"time"
)

type Player struct {
	PlayerID     string
	Platform     string
	Handle       string
	AvatarURL    string
	UserID       string
	IsPremium    bool
	Rank         int
	RankImageURL string
	LastFetchAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type StatValue struct {
	Value        float64
	DisplayValue string
	ImageURL     string
}

// Snapshot is one delta snapshot from the match-history endpoint. Overview is
// nil when the snapshot has no overview segment.
type Snapshot struct {
	ID           string
	RawTimestamp string
	Timestamp    time.Time
	Overview     map[string]StatValue
	Breakdowns   Breakdowns
}

func (s Snapshot) HasOverview() bool {
	return s.Overview != nil
}

// EntityStats is a single gamemode/weapon/vehicle/gadget/kit/map record.
type EntityStats struct {
	Key          string
	Name         string
	ImageURL     string
	Category     string
	CategoryName string
	Stats        map[string]float64
}

func (e EntityStats) Stat(key string) float64 {
	return e.Stats[key]
}

type Breakdowns struct {
	Gamemodes []EntityStats
	Weapons   []EntityStats
	Vehicles  []EntityStats
	Gadgets   []EntityStats
	Kits      []EntityStats
	Levels    []EntityStats

	// Raw keeps the upstream metadata object untouched for pass-through.
	Raw json.RawMessage
}

func (b Breakdowns) Empty() bool {
	return len(b.Gamemodes) == 0 && len(b.Weapons) == 0 && len(b.Vehicles) == 0 &&
		len(b.Gadgets) == 0 && len(b.Kits) == 0 && len(b.Levels) == 0
}

// Totals are the reconciled lifetime statistics for one fetch.
type Totals struct {
	TotalMatches    int64
	TotalWins       int64
	TotalLosses     int64
	TotalKills      int64
	TotalDeaths     int64
	TotalTimePlayed int64 // seconds

	OverallKD float64
	WinRate   float64 // percent

	Rank         int
	RankImageURL string

	// non-cumulative stats read from the most recent snapshot
	PointInTime map[string]StatValue

	SnapshotCount int
	HasData       bool
}

type Highlights struct {
	MostPlayedGamemode *EntityStats
	MostUsedWeapon     *EntityStats
	MostUsedKit        *EntityStats
}

type Overview struct {
	Player     Player
	Totals     Totals
	Highlights Highlights
	Breakdowns Breakdowns
	FetchedAt  time.Time
	Cached     bool
}

type StatPoint struct {
	StatKey      string
	Day          time.Time
	Value        float64
	DisplayValue string
}

type StatHistory struct {
	PlayerID string
	Platform string
	StatKey  string
	Name     string
	Points   []StatPoint
	// Current is the latest point, or the matching reconciled ratio when the
	// series is empty.
	Current float64
}
