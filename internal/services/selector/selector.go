// Package selector picks the next wallpaper from a candidate pool under
// blocked, rule-based, and recency exclusions with a soft favorites preference.
package selector

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ternarybob/kabegami/internal/models"
)

// Selector chooses uniformly at random among eligible candidates.
// It is safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a Selector seeded from the clock
func New() *Selector {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource creates a Selector with a fixed random source (for deterministic tests)
func NewWithSource(src rand.Source) *Selector {
	return &Selector{rnd: rand.New(src)}
}

// PickNext returns one eligible item, or false when exclusions leave nothing.
//
// Order: blocked (when prefs.ExcludeBlocked), rule-based exclusions (AND),
// recency window (always), then favorites preference over the survivors.
func (s *Selector) PickNext(
	candidates []models.CatalogItem,
	recentKeys []string,
	favoriteKeys []string,
	blockedKeys []string,
	prefs models.RotationPreferences,
) (models.CatalogItem, bool) {
	blocked := toSet(blockedKeys)
	recent := toSet(recentKeys)

	pool := make([]models.CatalogItem, 0, len(candidates))
	for _, item := range candidates {
		if prefs.ExcludeBlocked && len(blocked) > 0 {
			if _, ok := blocked[item.ID]; ok {
				continue
			}
		}
		if excludedByRules(item.ID, prefs.ExcludeRules) {
			continue
		}
		if _, ok := recent[item.ID]; ok {
			continue
		}
		pool = append(pool, item)
	}

	if len(pool) == 0 {
		return models.CatalogItem{}, false
	}

	if prefs.PreferFavorites {
		favorites := toSet(favoriteKeys)
		preferred := make([]models.CatalogItem, 0, len(pool))
		for _, item := range pool {
			if _, ok := favorites[item.ID]; ok {
				preferred = append(preferred, item)
			}
		}
		if len(preferred) > 0 {
			return preferred[s.intn(len(preferred))], true
		}
	}

	return pool[s.intn(len(pool))], true
}

// Filter applies the rule-based exclusions only; used to present the
// candidate list the way rotation will see it
func Filter(items []models.CatalogItem, rules []models.ExclusionRule) []models.CatalogItem {
	if len(rules) == 0 {
		return items
	}
	out := make([]models.CatalogItem, 0, len(items))
	for _, item := range items {
		if !excludedByRules(item.ID, rules) {
			out = append(out, item)
		}
	}
	return out
}

func (s *Selector) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

func excludedByRules(id string, rules []models.ExclusionRule) bool {
	for _, rule := range rules {
		if rule.Matches(id) {
			return true
		}
	}
	return false
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
