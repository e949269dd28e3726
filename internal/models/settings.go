package models

import "strings"

// Settings are the live, user-editable rotation preferences persisted to settings.toml
type Settings struct {
	AutoRotateEnabled     bool            `toml:"autoRotateEnabled" json:"autoRotateEnabled"`
	RotateIntervalMinutes int             `toml:"rotateIntervalMinutes" json:"rotateIntervalMinutes" validate:"min=0"`
	RotateOnAppStart      bool            `toml:"rotateOnAppStart" json:"rotateOnAppStart"`
	RecentExcludeCount    int             `toml:"recentExcludeCount" json:"recentExcludeCount" validate:"min=0,max=10000"`
	PreferFavorites       bool            `toml:"preferFavorites" json:"preferFavorites"`
	ExcludeBlocked        bool            `toml:"excludeBlocked" json:"excludeBlocked"`
	ExcludeThirdEvolution bool            `toml:"excludeThirdEvolution" json:"excludeThirdEvolution"`
	ExcludeRules          []ExclusionRule `toml:"excludeRules" json:"excludeRules" validate:"dive"`
	CacheMaxMB            int             `toml:"cacheMaxMb" json:"cacheMaxMb"`
	HistoryMaxEntries     int             `toml:"historyMaxEntries" json:"historyMaxEntries" validate:"min=0"`
}

// Preferences derives the value object read by one rotation attempt
func (s Settings) Preferences() RotationPreferences {
	rules := make([]ExclusionRule, 0, len(s.ExcludeRules)+1)
	rules = append(rules, s.ExcludeRules...)
	if s.ExcludeThirdEvolution {
		rules = append(rules, ThirdEvolutionRule)
	}

	return RotationPreferences{
		PreferFavorites:    s.PreferFavorites,
		ExcludeBlocked:     s.ExcludeBlocked,
		ExcludeRules:       rules,
		RecentExcludeCount: s.RecentExcludeCount,
		CacheMaxBytes:      int64(s.CacheMaxMB) * 1024 * 1024,
		HistoryMaxEntries:  s.HistoryMaxEntries,
	}
}

// RotationPreferences is the snapshot of preferences one rotation attempt runs with
type RotationPreferences struct {
	PreferFavorites    bool
	ExcludeBlocked     bool
	ExcludeRules       []ExclusionRule
	RecentExcludeCount int
	CacheMaxBytes      int64 // <= 0 disables eviction
	HistoryMaxEntries  int   // <= 0 disables trimming
}

// ExclusionRuleType names how an ExclusionRule matches an item id
type ExclusionRuleType string

const (
	ExclusionSuffix   ExclusionRuleType = "suffix"
	ExclusionPrefix   ExclusionRuleType = "prefix"
	ExclusionContains ExclusionRuleType = "contains"
	// ExclusionSegment matches when id runes [Start:End] equal Value
	ExclusionSegment ExclusionRuleType = "segment"
)

// ExclusionRule removes every candidate whose id matches
type ExclusionRule struct {
	Type  ExclusionRuleType `toml:"type" json:"type" validate:"oneof=suffix prefix contains segment"`
	Value string            `toml:"value" json:"value" validate:"required"`
	Start int               `toml:"start,omitempty" json:"start,omitempty" validate:"min=0"`
	End   int               `toml:"end,omitempty" json:"end,omitempty" validate:"min=0"`
}

// ThirdEvolutionRule is the "exclude third evolution" toggle: card ids ending in "2"
var ThirdEvolutionRule = ExclusionRule{Type: ExclusionSuffix, Value: "2"}

// SRCardRule matches SR-rarity card ids (runes 4..6 equal "30")
var SRCardRule = ExclusionRule{Type: ExclusionSegment, Value: "30", Start: 4, End: 6}

// Matches reports whether id is excluded by the rule
func (r ExclusionRule) Matches(id string) bool {
	switch r.Type {
	case ExclusionSuffix:
		return strings.HasSuffix(id, r.Value)
	case ExclusionPrefix:
		return strings.HasPrefix(id, r.Value)
	case ExclusionContains:
		return strings.Contains(id, r.Value)
	case ExclusionSegment:
		runes := []rune(id)
		if r.Start < 0 || r.End <= r.Start || len(runes) < r.End {
			return false
		}
		return string(runes[r.Start:r.End]) == r.Value
	default:
		return false
	}
}
