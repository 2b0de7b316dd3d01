package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionsPartitionAllRegions(t *testing.T) {
	sections := SectionsForAllRegions()
	require.Len(t, sections, 8)

	seen := make(map[Region]int)
	for i, s := range sections {
		assert.Equal(t, i, s.Index)
		for _, r := range s.Regions {
			seen[r]++
		}
	}

	require.Len(t, Regions, 25)
	assert.Len(t, seen, len(Regions))
	for _, r := range Regions {
		assert.Equal(t, 1, seen[r], "region %s", r)
		assert.True(t, SectionContaining(r).Contains(r))
	}
}

func TestSectionsForAllRegionsReturnsCopies(t *testing.T) {
	first := SectionsForAllRegions()
	first[0].Regions[0] = RegionGangnam

	assert.Equal(t, RegionDobong, SectionsForAllRegions()[0].Regions[0])
}

func TestSectionContainingPanicsOnUnknownRegion(t *testing.T) {
	assert.Panics(t, func() { SectionContaining(Region("atlantis")) })
}

func TestSectionByIndex(t *testing.T) {
	s, ok := SectionByIndex(6)
	require.True(t, ok)
	assert.Equal(t, []Region{RegionSeocho, RegionGangnam}, s.Regions)

	_, ok = SectionByIndex(-1)
	assert.False(t, ok)
	_, ok = SectionByIndex(8)
	assert.False(t, ok)
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in   string
		want Region
		ok   bool
	}{
		{"dobong", RegionDobong, true},
		{" Mapo ", RegionMapo, true},
		{"도봉", RegionDobong, true},
		{"영등포", RegionYeongdeungpo, true},
		{"atlantis", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRegion(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRegionRoundTrip(t *testing.T) {
	for _, r := range Regions {
		byID, err := ParseRegion(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, byID)

		byName, err := ParseRegion(r.Name())
		require.NoError(t, err)
		assert.Equal(t, r, byName)
	}
}

func TestParseSection(t *testing.T) {
	tests := []struct {
		in    string
		index int
		ok    bool
	}{
		{"도봉,강북,노원", 0, true},
		{"서초,강남", 6, true},
		{"gangdong", 7, true},
		{"은평", 1, true},
		{"강남,서초", 0, false},
		{"nowhere", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSection(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.index, got.Index)
		})
	}

	for _, s := range SectionsForAllRegions() {
		parsed, err := ParseSection(s.Name())
		require.NoError(t, err)
		assert.Equal(t, s.Index, parsed.Index)
	}
}
