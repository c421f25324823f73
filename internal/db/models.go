package db

import "time"

type Player struct {
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

type PlayerTotal struct {
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

type StatHistory struct {
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
