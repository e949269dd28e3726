package selector

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/kabegami/internal/models"
)

func items(ids ...string) []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.CatalogItem{ID: id, DisplayName: "card " + id})
	}
	return out
}

func TestPickNext_EmptyPool(t *testing.T) {
	s := NewWithSource(rand.NewSource(1))

	_, ok := s.PickNext(nil, nil, nil, nil, models.RotationPreferences{})
	assert.False(t, ok)
}

func TestPickNext_NeverReturnsBlockedOrRecent(t *testing.T) {
	s := NewWithSource(rand.NewSource(42))
	pool := items("1011", "1021", "1022", "1023", "1031", "1032", "1033", "1041")
	blocked := []string{"1021", "1033"}
	recent := []string{"1011", "1041"}
	prefs := models.RotationPreferences{ExcludeBlocked: true}

	for i := 0; i < 500; i++ {
		item, ok := s.PickNext(pool, recent, nil, blocked, prefs)
		require.True(t, ok)
		assert.NotContains(t, blocked, item.ID)
		assert.NotContains(t, recent, item.ID)
	}
}

func TestPickNext_BlockedIgnoredWhenFlagOff(t *testing.T) {
	s := NewWithSource(rand.NewSource(3))
	pool := items("A")

	item, ok := s.PickNext(pool, nil, nil, []string{"A"}, models.RotationPreferences{ExcludeBlocked: false})
	require.True(t, ok)
	assert.Equal(t, "A", item.ID)
}

func TestPickNext_RecencyIsUnconditional(t *testing.T) {
	s := NewWithSource(rand.NewSource(7))

	_, ok := s.PickNext(items("X"), []string{"X"}, []string{"X"}, nil, models.RotationPreferences{PreferFavorites: true})
	assert.False(t, ok)
}

func TestPickNext_PrefersFavorites(t *testing.T) {
	s := NewWithSource(rand.NewSource(99))
	pool := items("1", "2", "3", "4", "5", "6")
	favorites := []string{"2", "5"}
	prefs := models.RotationPreferences{PreferFavorites: true}

	for i := 0; i < 500; i++ {
		item, ok := s.PickNext(pool, nil, favorites, nil, prefs)
		require.True(t, ok)
		assert.Contains(t, favorites, item.ID)
	}
}

func TestPickNext_BlockedFavoriteFallsThrough(t *testing.T) {
	s := NewWithSource(rand.NewSource(5))
	pool := items("fav", "other")
	prefs := models.RotationPreferences{PreferFavorites: true, ExcludeBlocked: true}

	for i := 0; i < 100; i++ {
		item, ok := s.PickNext(pool, nil, []string{"fav"}, []string{"fav"}, prefs)
		require.True(t, ok)
		assert.Equal(t, "other", item.ID)
	}
}

func TestPickNext_FavoritesInRecencyWindowFallThrough(t *testing.T) {
	s := NewWithSource(rand.NewSource(11))
	pool := items("fav", "a", "b")
	prefs := models.RotationPreferences{PreferFavorites: true}

	for i := 0; i < 100; i++ {
		item, ok := s.PickNext(pool, []string{"fav"}, []string{"fav"}, nil, prefs)
		require.True(t, ok)
		assert.NotEqual(t, "fav", item.ID)
	}
}

func TestPickNext_UniformOverPool(t *testing.T) {
	s := NewWithSource(rand.NewSource(2024))
	pool := items("1011", "1021")
	counts := map[string]int{}

	const trials = 4000
	for i := 0; i < trials; i++ {
		item, ok := s.PickNext(pool, nil, nil, nil, models.RotationPreferences{})
		require.True(t, ok)
		counts[item.ID]++
	}

	// Loose bound: each side within 10% of half
	assert.InDelta(t, trials/2, counts["1011"], trials*0.1)
	assert.InDelta(t, trials/2, counts["1021"], trials*0.1)
}

func TestPickNext_RulesComposeByAnd(t *testing.T) {
	s := NewWithSource(rand.NewSource(8))
	pool := items("103102", "103301", "103012", "104101")
	prefs := models.RotationPreferences{
		ExcludeRules: []models.ExclusionRule{
			models.ThirdEvolutionRule,
			{Type: models.ExclusionSegment, Value: "30", Start: 4, End: 6},
			{Type: models.ExclusionPrefix, Value: "1041"},
		},
	}

	for i := 0; i < 50; i++ {
		item, ok := s.PickNext(pool, nil, nil, nil, prefs)
		require.True(t, ok)
		assert.Equal(t, "103301", item.ID)
	}
}

func TestExclusionRule_Matches(t *testing.T) {
	tests := []struct {
		name string
		rule models.ExclusionRule
		id   string
		want bool
	}{
		{"suffix hit", models.ExclusionRule{Type: models.ExclusionSuffix, Value: "2"}, "103102", true},
		{"suffix miss", models.ExclusionRule{Type: models.ExclusionSuffix, Value: "2"}, "103101", false},
		{"prefix", models.ExclusionRule{Type: models.ExclusionPrefix, Value: "10"}, "1031", true},
		{"contains", models.ExclusionRule{Type: models.ExclusionContains, Value: "33"}, "103301", true},
		{"segment hit", models.ExclusionRule{Type: models.ExclusionSegment, Value: "30", Start: 4, End: 6}, "103130", true},
		{"segment too short", models.ExclusionRule{Type: models.ExclusionSegment, Value: "30", Start: 4, End: 6}, "10313", false},
		{"segment inverted bounds", models.ExclusionRule{Type: models.ExclusionSegment, Value: "", Start: 4, End: 2}, "103130", false},
		{"sr card", models.SRCardRule, "103130", true},
		{"sr card other rarity", models.SRCardRule, "103120", false},
		{"unknown type", models.ExclusionRule{Type: "regex", Value: ".*"}, "1031", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(tt.id))
		})
	}
}

func TestFilter(t *testing.T) {
	pool := items("10311", "10312", "10322")

	got := Filter(pool, []models.ExclusionRule{models.ThirdEvolutionRule})
	require.Len(t, got, 1)
	assert.Equal(t, "10311", got[0].ID)

	assert.Len(t, Filter(pool, nil), 3)
}
