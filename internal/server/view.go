package server

import (
	"encoding/json"
	"fmt"
	"time"

	"bf6-tracker/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type statView struct {
	Value        float64 `json:"value"`
	DisplayValue string  `json:"displayValue,omitempty"`
	ImageURL     string  `json:"imageUrl,omitempty"`
}

type entityView struct {
	Key          string             `json:"key"`
	Name         string             `json:"name"`
	ImageURL     string             `json:"imageUrl,omitempty"`
	CategoryName string             `json:"categoryName,omitempty"`
	Stats        map[string]float64 `json:"stats"`
}

type playerView struct {
	PlayerID     string `json:"playerId"`
	Platform     string `json:"platform"`
	Handle       string `json:"handle,omitempty"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	IsPremium    bool   `json:"isPremium"`
	Rank         int    `json:"rank"`
	RankImageURL string `json:"rankImageUrl,omitempty"`
}

type totalsView struct {
	HasData         bool                `json:"hasData"`
	TotalMatches    int64               `json:"totalMatches"`
	TotalWins       int64               `json:"totalWins"`
	TotalLosses     int64               `json:"totalLosses"`
	TotalKills      int64               `json:"totalKills"`
	TotalDeaths     int64               `json:"totalDeaths"`
	TotalTimePlayed int64               `json:"totalTimePlayed"`
	OverallKD       float64             `json:"overallKD"`
	WinRate         float64             `json:"winRate"`
	Rank            int                 `json:"rank"`
	RankImageURL    string              `json:"rankImageUrl,omitempty"`
	SnapshotCount   int                 `json:"snapshotCount"`
	PointInTime     map[string]statView `json:"pointInTime"`
}

type highlightsView struct {
	MostPlayedGamemode *entityView `json:"mostPlayedGamemode,omitempty"`
	MostUsedWeapon     *entityView `json:"mostUsedWeapon,omitempty"`
	MostUsedKit        *entityView `json:"mostUsedKit,omitempty"`
}

type overviewResponse struct {
	Player     playerView      `json:"player"`
	Totals     totalsView      `json:"totals"`
	Highlights highlightsView  `json:"highlights"`
	Breakdowns json.RawMessage `json:"breakdowns,omitempty"`
	FetchedAt  string          `json:"fetchedAt"`
	Cached     bool            `json:"cached"`
}

type pointView struct {
	Day          string  `json:"day"`
	Value        float64 `json:"value"`
	DisplayValue string  `json:"displayValue,omitempty"`
}

type statHistoryResponse struct {
	PlayerID string      `json:"playerId"`
	Platform string      `json:"platform"`
	Stat     string      `json:"stat"`
	Name     string      `json:"name"`
	Current  float64     `json:"current"`
	Points   []pointView `json:"points"`
}

func overviewView(o *domain.Overview) overviewResponse {
	t := o.Totals
	pit := make(map[string]statView, len(t.PointInTime))
	for k, v := range t.PointInTime {
		pit[k] = statView{Value: v.Value, DisplayValue: v.DisplayValue, ImageURL: v.ImageURL}
	}

	var breakdowns json.RawMessage
	if json.Valid(o.Breakdowns.Raw) {
		breakdowns = o.Breakdowns.Raw
	}

	return overviewResponse{
		Player: playerView{
			PlayerID:     o.Player.PlayerID,
			Platform:     o.Player.Platform,
			Handle:       o.Player.Handle,
			AvatarURL:    o.Player.AvatarURL,
			IsPremium:    o.Player.IsPremium,
			Rank:         o.Player.Rank,
			RankImageURL: o.Player.RankImageURL,
		},
		Totals: totalsView{
			HasData:         t.HasData,
			TotalMatches:    t.TotalMatches,
			TotalWins:       t.TotalWins,
			TotalLosses:     t.TotalLosses,
			TotalKills:      t.TotalKills,
			TotalDeaths:     t.TotalDeaths,
			TotalTimePlayed: t.TotalTimePlayed,
			OverallKD:       t.OverallKD,
			WinRate:         t.WinRate,
			Rank:            t.Rank,
			RankImageURL:    t.RankImageURL,
			SnapshotCount:   t.SnapshotCount,
			PointInTime:     pit,
		},
		Highlights: highlightsView{
			MostPlayedGamemode: entity(o.Highlights.MostPlayedGamemode),
			MostUsedWeapon:     entity(o.Highlights.MostUsedWeapon),
			MostUsedKit:        entity(o.Highlights.MostUsedKit),
		},
		Breakdowns: breakdowns,
		FetchedAt:  o.FetchedAt.UTC().Format(time.RFC3339),
		Cached:     o.Cached,
	}
}

func entity(e *domain.EntityStats) *entityView {
	if e == nil {
		return nil
	}
	return &entityView{
		Key:          e.Key,
		Name:         e.Name,
		ImageURL:     e.ImageURL,
		CategoryName: e.CategoryName,
		Stats:        e.Stats,
	}
}

func statHistoryView(h *domain.StatHistory) statHistoryResponse {
	points := make([]pointView, len(h.Points))
	for i, p := range h.Points {
		points[i] = pointView{
			Day:          p.Day.UTC().Format(time.DateOnly),
			Value:        p.Value,
			DisplayValue: p.DisplayValue,
		}
	}
	return statHistoryResponse{
		PlayerID: h.PlayerID,
		Platform: h.Platform,
		Stat:     h.StatKey,
		Name:     h.Name,
		Current:  h.Current,
		Points:   points,
	}
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return msg, nil
}
