// Package platform maps the platform slugs used by clients onto the path
// segments the upstream API expects. The mapping differs per endpoint family,
// so every URL builder goes through Segment.
package platform

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Origin = "origin"
	PSN    = "psn"
	Xbox   = "xbl"
	Steam  = "steam"
)

// Default is used when a caller does not name a platform.
const Default = Origin

type Family int

const (
	FamilyMatches Family = iota
	FamilyProfile
	FamilyStatHistory
)

func (f Family) String() string {
	switch f {
	case FamilyMatches:
		return "matches"
	case FamilyProfile:
		return "profile"
	case FamilyStatHistory:
		return "stat-history"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

var ErrUnknownPlatform = errors.New("unknown platform")

var segments = map[Family]map[string]string{
	FamilyMatches: {
		Origin: "origin",
		PSN:    "psn",
		Xbox:   "xbox",
		Steam:  "steam",
	},
	FamilyProfile: {
		Origin: "ign",
		PSN:    "psn",
		Xbox:   "xbox",
		Steam:  "steam",
	},
	FamilyStatHistory: {
		Origin: "origin",
		PSN:    "psn",
		Xbox:   "xbox",
		Steam:  "steam",
	},
}

// Normalize lowercases and trims a slug, substituting Default for an empty one.
func Normalize(slug string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return Default
	}
	return slug
}

func Valid(slug string) bool {
	_, ok := segments[FamilyMatches][Normalize(slug)]
	return ok
}

func Segment(slug string, family Family) (string, error) {
	table, ok := segments[family]
	if !ok {
		return "", fmt.Errorf("no platform table for %s", family)
	}
	seg, ok := table[Normalize(slug)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, slug)
	}
	return seg, nil
}

// Slugs returns the supported slugs in a stable order.
func Slugs() []string {
	return []string{Origin, PSN, Xbox, Steam}
}
