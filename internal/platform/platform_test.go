package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name   string
		slug   string
		family Family
		want   string
	}{
		{"origin matches", "origin", FamilyMatches, "origin"},
		{"xbl matches", "xbl", FamilyMatches, "xbox"},
		{"psn matches", "psn", FamilyMatches, "psn"},
		{"steam matches", "steam", FamilyMatches, "steam"},
		{"origin profile", "origin", FamilyProfile, "ign"},
		{"xbl profile", "xbl", FamilyProfile, "xbox"},
		{"psn profile", "psn", FamilyProfile, "psn"},
		{"steam profile", "steam", FamilyProfile, "steam"},
		{"xbl history", "xbl", FamilyStatHistory, "xbox"},
		{"origin history", "origin", FamilyStatHistory, "origin"},
		{"empty defaults to origin", "", FamilyProfile, "ign"},
		{"case and space insensitive", "  XBL ", FamilyMatches, "xbox"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Segment(tt.slug, tt.family)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmentUnknown(t *testing.T) {
	_, err := Segment("switch", FamilyMatches)
	require.ErrorIs(t, err, ErrUnknownPlatform)

	_, err = Segment("origin", Family(42))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownPlatform)
}

func TestEveryFamilyCoversEverySlug(t *testing.T) {
	for _, family := range []Family{FamilyMatches, FamilyProfile, FamilyStatHistory} {
		for _, slug := range Slugs() {
			seg, err := Segment(slug, family)
			require.NoError(t, err, "%s/%s", family, slug)
			assert.NotEmpty(t, seg)
		}
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("psn"))
	assert.True(t, Valid(""))
	assert.False(t, Valid("stadia"))
}
