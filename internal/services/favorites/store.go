// Package favorites persists the favorite and blocked key sets to favorites.json
package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

// Store implements interfaces.FavoritesStore. Toggles are written through immediately.
type Store struct {
	mu        sync.RWMutex
	path      string
	favorites map[string]struct{}
	blocked   map[string]struct{}
	logger    arbor.ILogger
}

// Compile-time assertion
var _ interfaces.FavoritesStore = (*Store)(nil)

// NewStore loads path. A missing or corrupt file yields empty sets.
func NewStore(path string, logger arbor.ILogger) *Store {
	s := &Store{
		path:      path,
		favorites: make(map[string]struct{}),
		blocked:   make(map[string]struct{}),
		logger:    logger,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s
	case err != nil:
		logger.Error().Err(err).Str("path", path).Msg("Failed to read favorites, starting empty")
		return s
	}

	var stored models.Favorites
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to parse favorites, starting empty")
		return s
	}

	for _, k := range stored.FavoriteKeys {
		if strings.TrimSpace(k) != "" {
			s.favorites[k] = struct{}{}
		}
	}
	for _, k := range stored.BlockedKeys {
		if strings.TrimSpace(k) != "" {
			s.blocked[k] = struct{}{}
		}
	}

	logger.Debug().
		Int("favorites", len(s.favorites)).
		Int("blocked", len(s.blocked)).
		Msg("Favorites loaded")

	return s
}

// IsFavorite reports whether key is in the favorite set
func (s *Store) IsFavorite(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[key]
	return ok
}

// IsBlocked reports whether key is excluded from automatic rotation
func (s *Store) IsBlocked(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocked[key]
	return ok
}

// FavoriteKeys returns the favorite set sorted ascending
func (s *Store) FavoriteKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.favorites)
}

// BlockedKeys returns the blocked set sorted ascending
func (s *Store) BlockedKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.blocked)
}

// ToggleFavorite flips key in the favorite set and persists
func (s *Store) ToggleFavorite(key string) (bool, error) {
	return s.toggle(key, func() map[string]struct{} { return s.favorites })
}

// ToggleBlocked flips key in the blocked set and persists
func (s *Store) ToggleBlocked(key string) (bool, error) {
	return s.toggle(key, func() map[string]struct{} { return s.blocked })
}

func (s *Store) toggle(key string, set func() map[string]struct{}) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, fmt.Errorf("key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := set()
	_, had := target[key]
	if had {
		delete(target, key)
	} else {
		target[key] = struct{}{}
	}

	if err := s.persist(); err != nil {
		// Roll back so memory matches disk
		if had {
			target[key] = struct{}{}
		} else {
			delete(target, key)
		}
		return had, err
	}

	return !had, nil
}

// persist must be called with the write lock held
func (s *Store) persist() error {
	data, err := json.MarshalIndent(models.Favorites{
		FavoriteKeys: sortedKeys(s.favorites),
		BlockedKeys:  sortedKeys(s.blocked),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}
	if err := common.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to persist favorites: %w", err)
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
