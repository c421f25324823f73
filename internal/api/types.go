package api

import (
	"encoding/json"
	"fmt"
)

type ProfileResponse struct {
	Data ProfileData `json:"data"`
}

type ProfileData struct {
	PlatformInfo struct {
		PlatformSlug       string `json:"platformSlug"`
		PlatformUserID     string `json:"platformUserId"`
		PlatformUserHandle string `json:"platformUserHandle"`
		AvatarURL          string `json:"avatarUrl"`
	} `json:"platformInfo"`
	UserInfo struct {
		UserID    string `json:"userId"`
		IsPremium bool   `json:"isPremium"`
	} `json:"userInfo"`
}

type StatHistoryResponse struct {
	Data struct {
		History     StatHistorySeries `json:"history"`
		Leaderboard Leaderboard       `json:"leaderboard"`
	} `json:"data"`
}

type StatHistorySeries struct {
	Metadata struct {
		Key         string `json:"key"`
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"metadata"`
	Data []HistoryEntry `json:"data"`
}

// HistoryEntry is one [date, value] tuple of a stat-history series.
type HistoryEntry struct {
	Date         string
	Value        float64
	DisplayValue string
	DisplayType  string
}

func (e *HistoryEntry) UnmarshalJSON(b []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(b, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("history entry: want 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &e.Date); err != nil {
		return fmt.Errorf("history entry date: %w", err)
	}
	var point struct {
		Value        float64 `json:"value"`
		DisplayValue string  `json:"displayValue"`
		DisplayType  string  `json:"displayType"`
	}
	if err := json.Unmarshal(tuple[1], &point); err != nil {
		return fmt.Errorf("history entry value: %w", err)
	}
	e.Value, e.DisplayValue, e.DisplayType = point.Value, point.DisplayValue, point.DisplayType
	return nil
}

type Leaderboard struct {
	Entries []struct {
		PlatformInfo struct {
			PlatformUserHandle string `json:"platformUserHandle"`
		} `json:"platformInfo"`
		Value struct {
			Value        float64 `json:"value"`
			DisplayValue string  `json:"displayValue"`
		} `json:"value"`
		Rank struct {
			Value int `json:"value"`
		} `json:"rank"`
	} `json:"entries"`
}
