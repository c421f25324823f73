package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"bf6-tracker/internal/domain"
)

const overviewSegment = "overview"

var ErrMalformedPayload = errors.New("malformed match-history payload")

type rawMatch struct {
	Attributes struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"attributes"`
	Metadata struct {
		Timestamp string `json:"timestamp"`
	} `json:"metadata"`
	Segments []json.RawMessage `json:"segments"`
}

type rawSegment struct {
	Type     string                     `json:"type"`
	Metadata json.RawMessage            `json:"metadata"`
	Stats    map[string]json.RawMessage `json:"stats"`
}

type rawStat struct {
	Value        *float64 `json:"value"`
	DisplayValue string   `json:"displayValue"`
	Metadata     struct {
		ImageURL string `json:"imageUrl"`
	} `json:"metadata"`
}

type rawEntity struct {
	Key      string `json:"key"`
	Metadata struct {
		Name         string `json:"name"`
		ImageURL     string `json:"imageUrl"`
		Category     string `json:"category"`
		CategoryName string `json:"categoryName"`
	} `json:"metadata"`
	Stats map[string]json.RawMessage `json:"stats"`
}

// Normalize turns a match-history payload into snapshots. Both the wrapped
// {data:{matches:[...]}} and the bare {matches:[...]} shapes are accepted.
// Any other well-formed JSON yields no snapshots; only invalid JSON is an
// error. Individual snapshots that cannot be decoded are skipped.
func Normalize(raw []byte) ([]domain.Snapshot, error) {
	if !json.Valid(raw) {
		return nil, ErrMalformedPayload
	}

	matches := locateMatches(raw)
	if len(matches) == 0 {
		return []domain.Snapshot{}, nil
	}

	snapshots := make([]domain.Snapshot, 0, len(matches))
	for _, m := range matches {
		var match rawMatch
		if err := json.Unmarshal(m, &match); err != nil {
			continue
		}
		snapshots = append(snapshots, toSnapshot(match))
	}
	return snapshots, nil
}

func locateMatches(raw []byte) []json.RawMessage {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil
	}

	if data, ok := top["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil {
			if list := decodeList(inner["matches"]); list != nil {
				return list
			}
		}
	}
	return decodeList(top["matches"])
}

func decodeList(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

func toSnapshot(m rawMatch) domain.Snapshot {
	s := domain.Snapshot{
		ID:           m.Attributes.ID,
		RawTimestamp: m.Metadata.Timestamp,
		Timestamp:    ParseTimestamp(m.Metadata.Timestamp),
	}

	for _, rawSeg := range m.Segments {
		var seg rawSegment
		if err := json.Unmarshal(rawSeg, &seg); err != nil {
			continue
		}
		if seg.Type != overviewSegment {
			continue
		}
		s.Overview = decodeStats(seg.Stats)
		s.Breakdowns = DecodeBreakdowns(seg.Metadata)
		break
	}
	return s
}

func decodeStats(stats map[string]json.RawMessage) map[string]domain.StatValue {
	out := make(map[string]domain.StatValue, len(stats))
	for key, raw := range stats {
		var st rawStat
		if err := json.Unmarshal(raw, &st); err != nil || st.Value == nil {
			continue
		}
		out[key] = domain.StatValue{
			Value:        *st.Value,
			DisplayValue: st.DisplayValue,
			ImageURL:     st.Metadata.ImageURL,
		}
	}
	return out
}

// DecodeBreakdowns reads an overview segment's metadata object. Unknown or
// malformed groups decode as empty; Raw keeps the input for pass-through.
func DecodeBreakdowns(raw json.RawMessage) domain.Breakdowns {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.Breakdowns{}
	}

	var groups map[string]json.RawMessage
	if err := json.Unmarshal(raw, &groups); err != nil {
		return domain.Breakdowns{}
	}

	return domain.Breakdowns{
		Gamemodes: decodeEntities(groups["gamemodes"]),
		Weapons:   decodeEntities(groups["weapons"]),
		Vehicles:  decodeEntities(groups["vehicles"]),
		Gadgets:   decodeEntities(groups["gadgets"]),
		Kits:      decodeEntities(groups["kits"]),
		Levels:    decodeEntities(groups["levels"]),
		Raw:       append(json.RawMessage(nil), raw...),
	}
}

func decodeEntities(raw json.RawMessage) []domain.EntityStats {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}

	out := make([]domain.EntityStats, 0, len(list))
	for _, item := range list {
		var e rawEntity
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		stats := make(map[string]float64, len(e.Stats))
		for k, v := range e.Stats {
			var f float64
			if err := json.Unmarshal(v, &f); err == nil {
				stats[k] = f
			}
		}
		out = append(out, domain.EntityStats{
			Key:          e.Key,
			Name:         e.Metadata.Name,
			ImageURL:     e.Metadata.ImageURL,
			Category:     e.Metadata.Category,
			CategoryName: e.Metadata.CategoryName,
			Stats:        stats,
		})
	}
	return out
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp formats upstream has been seen to use
// and returns the zero time for anything else.
func ParseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
